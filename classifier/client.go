// Package classifier talks to the color oracle: an HTTP service that names the
// closest color of an image.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrUnavailable covers every way a call can fail: transport, timeout, status, body.
var ErrUnavailable = errors.New("classifier-unavailable")

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 64 << 10

type Taxonomy interface {
	Contains(family, shade string) bool
}

type Verdict struct {
	Shade   string
	IsMatch bool
}

type Client struct {
	url        string
	httpClient *http.Client
	taxonomy   Taxonomy
	tracer     trace.Tracer
}

type request struct {
	Image string `json:"imgb64"`
	Color string `json:"color"`
}

type response struct {
	Shade string `json:"defined_closest_color"`
}

func NewClient(url string, timeout time.Duration, taxonomy Taxonomy) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		taxonomy:   taxonomy,
		tracer:     otel.Tracer("colorhunt/classifier"),
	}
}

// Classify asks the oracle for the shade of image and checks it against family.
func (c *Client) Classify(ctx context.Context, image, family string) (Verdict, error) {
	ctx, span := c.tracer.Start(ctx, "classifier.Classify", trace.WithAttributes(
		attribute.String("color.family", family),
		attribute.Int("image.size", len(image)),
	))
	defer span.End()

	shade, err := c.fetchShade(ctx, image, family)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Verdict{}, err
	}

	v := Verdict{Shade: shade, IsMatch: c.taxonomy.Contains(family, shade)}
	span.SetAttributes(
		attribute.String("color.shade", v.Shade),
		attribute.Bool("color.match", v.IsMatch),
	)
	return v, nil
}

func (c *Client) fetchShade(ctx context.Context, image, family string) (string, error) {
	body, err := json.Marshal(request{Image: image, Color: family})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseSize))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}

	var out response
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseSize)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrUnavailable, err)
	}
	if out.Shade == "" {
		return "", fmt.Errorf("%w: empty color in response", ErrUnavailable)
	}
	return out.Shade, nil
}
