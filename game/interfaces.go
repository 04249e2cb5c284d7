package game

import (
	"colorhunt/classifier"
	"colorhunt/results"
	"context"
	"time"
)

// Conn is the outbound side of a client session. Send must never block.
type Conn interface {
	ID() string
	Send(e Event) error
}

type WebsocketConnection interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

// PeriodicTickerChannelCreator returns a tick channel and the function that stops it.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) (<-chan time.Time, func())
}

type Classifier interface {
	Classify(ctx context.Context, image, family string) (classifier.Verdict, error)
}

type ResultRecorder interface {
	Publish(ctx context.Context, s results.Summary) error
}
