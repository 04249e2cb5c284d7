package game

import (
	"colorhunt/classifier"
	"colorhunt/results"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(errCode string) {
	m.Called(errCode)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockUniqueIdGenerator) Dispose(id string) {
	m.Called(id)
}

// --- PeriodicTickerChannelCreator ---

type MockPeriodicTickerChannelCreator struct {
	mock.Mock
}

func (m *MockPeriodicTickerChannelCreator) Create(duration time.Duration) (<-chan time.Time, func()) {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time), func() {}
}

// --- Classifier ---

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, image, family string) (classifier.Verdict, error) {
	args := m.Called(ctx, image, family)
	return args.Get(0).(classifier.Verdict), args.Error(1)
}

// --- ResultRecorder ---

type MockResultRecorder struct {
	mock.Mock
}

func (m *MockResultRecorder) Publish(ctx context.Context, s results.Summary) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// --- Conn ---

// recordingConn is a Conn that keeps every event it is sent.
type recordingConn struct {
	id     string
	events chan Event
}

func newConn(id string) *recordingConn {
	return &recordingConn{id: id, events: make(chan Event, 512)}
}

func (c *recordingConn) ID() string {
	return c.id
}

func (c *recordingConn) Send(e Event) error {
	select {
	case c.events <- e:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// next waits for the next event.
func (c *recordingConn) next(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-c.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: no event received", c.id)
		return Event{}
	}
}

// drain returns the names of every event queued so far.
func (c *recordingConn) drain() []string {
	var names []string
	for {
		select {
		case e := <-c.events:
			names = append(names, e.Name)
		default:
			return names
		}
	}
}

func (c *recordingConn) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case e := <-c.events:
		t.Fatalf("%s: unexpected event %q", c.id, e.Name)
	case <-time.After(wait):
	}
}

// --- helpers ---

var testFamilies = []string{"red", "green", "blue", "yellow", "black"}

type roomFixture struct {
	room       *Room
	tickers    *MockPeriodicTickerChannelCreator
	classifier *MockClassifier
	ticks      chan time.Time
}

func newRoomFixture(settings Settings, families []string) *roomFixture {
	f := &roomFixture{
		tickers:    &MockPeriodicTickerChannelCreator{},
		classifier: &MockClassifier{},
		ticks:      make(chan time.Time),
	}
	f.tickers.On("Create", settings.TickInterval).Return(f.ticks)
	f.room = newRoom("1234", &dependencies{
		settings:   settings,
		families:   families,
		classifier: f.classifier,
		tickers:    f.tickers,
		intn:       func(n int) int { return n - 1 },
	})
	return f
}

func currentTimer(r *Room) *roundTimer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer
}

func waitDone(t *testing.T, timer *roundTimer) {
	t.Helper()
	select {
	case <-timer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer goroutine did not stop")
	}
}
