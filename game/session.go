package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Session is one connected client. Outbound frames queue in a bounded outbox
// drained by WritePump, so Send never blocks.
type Session struct {
	id        string
	ctx       context.Context
	cancelCtx context.CancelFunc
	outbox    chan []byte
	once      sync.Once
}

func NewSession(id string, buffer int) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		ctx:       ctx,
		cancelCtx: cancel,
		outbox:    make(chan []byte, buffer),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Send(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	select {
	case s.outbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// ReadPump feeds inbound frames to the router until the socket fails or the
// session is cancelled, then takes the session out of its room.
func (s *Session) ReadPump(socket WebsocketConnection, router *Router) {
	defer func() {
		router.Disconnect(s)
		s.CancelAndRelease()
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			log.Debug().Err(err).Str("player", s.id).Msg("read loop stopped")
			return
		}
		if s.ctx.Err() != nil {
			return
		}

		var in InboundEvent
		if err := json.Unmarshal(data, &in); err != nil || in.Name == "" {
			router.reply(s, fail(EventError, ErrBadRequestFormat))
			continue
		}
		router.Dispatch(s.ctx, s, in)
	}
}

// WritePump is the only writer on the socket. It closes the socket on the way
// out, which also unblocks ReadPump.
func (s *Session) WritePump(socket WebsocketConnection, pings <-chan time.Time) {
	defer socket.Close("")

	for {
		select {
		case <-s.ctx.Done():
			return
		case data := <-s.outbox:
			if err := socket.Write(data); err != nil {
				s.CancelAndRelease()
				return
			}
		case <-pings:
			if err := socket.Ping(); err != nil {
				s.CancelAndRelease()
				return
			}
		}
	}
}

func (s *Session) CancelAndRelease() {
	s.once.Do(s.cancelCtx)
}
