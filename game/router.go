package game

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

// Router turns inbound session events into registry and room calls and replies
// to the requester.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

func (rt *Router) Connect(conn Conn) {
	rt.reply(conn, Event{
		Name: EventConnected,
		Data: Response{Status: true, Client: conn.ID(), Data: connectedData{ID: conn.ID()}},
	})
}

func (rt *Router) Disconnect(conn Conn) {
	rt.registry.Disconnect(conn.ID())
}

// Dispatch handles one inbound event. Guesses are evaluated on their own
// goroutine so a slow classifier never stalls the caller.
func (rt *Router) Dispatch(ctx context.Context, conn Conn, in InboundEvent) {
	switch in.Name {
	case EventCreateRoom:
		rt.createRoom(conn, in)
	case EventJoinRoom:
		rt.joinRoom(conn, in)
	case EventLeaveRoom:
		rt.leaveRoom(conn, in)
	case EventStartGame:
		rt.startGame(conn, in)
	case EventReady:
		rt.setReady(conn, in, true)
	case EventUnready:
		rt.setReady(conn, in, false)
	case EventSkipColor:
		rt.skipColor(conn, in)
	case EventData:
		var p guessPayload
		if err := decode(in.Data, &p); err != nil {
			rt.reply(conn, fail(in.Name, err))
			return
		}
		go rt.guess(ctx, conn, p)
	default:
		rt.reply(conn, fail(in.Name, ErrUnknownEvent))
	}
}

func (rt *Router) createRoom(conn Conn, in InboundEvent) {
	var p createRoomPayload
	if err := decode(in.Data, &p); err != nil {
		rt.reply(conn, fail(in.Name, err))
		return
	}

	room, err := rt.registry.CreateRoom(conn, p.Solo)
	if err != nil {
		rt.reply(conn, fail(EventCreatedRoomName, err))
		rt.reply(conn, fail(EventJoinedRoom, err))
		return
	}

	rt.reply(conn, Event{Name: EventCreatedRoomName, Data: Response{Status: true, Data: room.Code()}})
	rt.reply(conn, Event{Name: EventJoinedRoom, Data: Response{
		Status: true,
		Client: conn.ID(),
		Data:   playersData{Players: room.Players()},
	}})
}

func (rt *Router) joinRoom(conn Conn, in InboundEvent) {
	var p roomPayload
	if err := decode(in.Data, &p); err != nil {
		rt.reply(conn, fail(in.Name, err))
		return
	}
	if _, err := rt.registry.JoinRoom(p.Room, conn); err != nil {
		rt.reply(conn, fail(EventJoinedRoom, err))
	}
}

func (rt *Router) leaveRoom(conn Conn, in InboundEvent) {
	var p roomPayload
	if err := decode(in.Data, &p); err != nil {
		rt.reply(conn, fail(in.Name, err))
		return
	}
	if err := rt.registry.LeaveRoom(p.Room, conn.ID(), false); err != nil {
		rt.reply(conn, fail(EventLeavedRoom, err))
	}
}

func (rt *Router) startGame(conn Conn, in InboundEvent) {
	room, err := rt.memberRoom(conn, in)
	if err != nil {
		rt.reply(conn, fail(EventGameStarted, err))
		return
	}
	if _, err := room.StartGame(conn.ID()); err != nil {
		rt.reply(conn, fail(EventGameStarted, err))
	}
}

func (rt *Router) setReady(conn Conn, in InboundEvent, ready bool) {
	room, err := rt.memberRoom(conn, in)
	if err != nil {
		rt.reply(conn, fail(in.Name, err))
		return
	}
	if err := room.SetReady(conn.ID(), ready); err != nil {
		rt.reply(conn, fail(in.Name, err))
	}
}

func (rt *Router) skipColor(conn Conn, in InboundEvent) {
	room, err := rt.memberRoom(conn, in)
	if err != nil {
		rt.reply(conn, fail(EventSkipColor, err))
		return
	}

	res, err := room.SkipColor(conn.ID())
	resp := Response{Status: err == nil, Data: res}
	if err != nil {
		resp.Message = publicMessage(err)
	}
	rt.reply(conn, Event{Name: EventSkipColor, Data: resp})
}

func (rt *Router) guess(ctx context.Context, conn Conn, p guessPayload) {
	room, err := rt.registry.MemberRoom(p.Room, conn.ID())
	if err != nil {
		rt.reply(conn, fail(EventData, err))
		return
	}

	res, err := room.EvaluateGuess(ctx, conn.ID(), p.Image)
	if errors.Is(err, ErrStaleGuess) {
		log.Debug().Str("room", p.Room).Str("player", conn.ID()).Msg("discarded stale guess")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("room", p.Room).Str("player", conn.ID()).Msg("guess failed")
		rt.reply(conn, fail(EventData, err))
		return
	}

	rt.reply(conn, Event{Name: EventData, Data: Response{Status: true, Message: res.IsCorrect, Data: res}})
}

func (rt *Router) memberRoom(conn Conn, in InboundEvent) (*Room, error) {
	var p roomPayload
	if err := decode(in.Data, &p); err != nil {
		return nil, err
	}
	return rt.registry.MemberRoom(p.Room, conn.ID())
}

func (rt *Router) reply(conn Conn, e Event) {
	if err := conn.Send(e); err != nil {
		log.Warn().Err(err).Str("player", conn.ID()).Str("event", e.Name).Msg("failed to reply")
	}
}

// decode reads an event payload. A missing payload decodes to the zero value.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return ErrBadRequestFormat
	}
	return nil
}
