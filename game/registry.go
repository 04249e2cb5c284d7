package game

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry owns every live room and knows which room each player is in. Its lock
// is always taken before a room lock, never after.
type Registry struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	members     map[string]string
	idGenerator UniqueIdGenerator
	deps        *dependencies
}

func NewRegistry(
	idGenerator UniqueIdGenerator,
	tickerCreator PeriodicTickerChannelCreator,
	classifier Classifier,
	families []string,
	settings Settings,
) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		members:     make(map[string]string),
		idGenerator: idGenerator,
		deps: &dependencies{
			settings:   settings,
			families:   slices.Clone(families),
			classifier: classifier,
			tickers:    tickerCreator,
			intn:       defaultIntn,
		},
	}
}

// SetResultRecorder makes every room report finished games to rec. It must be
// called before the registry serves players.
func (reg *Registry) SetResultRecorder(rec ResultRecorder) {
	reg.deps.recorder = rec
}

func (reg *Registry) CreateRoom(conn Conn, solo bool) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.members[conn.ID()]; ok {
		return nil, ErrAlreadyInRoom
	}

	code := reg.idGenerator.Generate()
	room := newRoom(code, reg.deps)
	if err := room.AddPlayer(conn, solo); err != nil {
		reg.idGenerator.Dispose(code)
		return nil, err
	}
	reg.rooms[code] = room
	reg.members[conn.ID()] = code

	log.Info().Str("room", code).Str("creator", conn.ID()).Bool("solo", solo).Msg("room created")
	return room, nil
}

func (reg *Registry) JoinRoom(code string, conn Conn) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.members[conn.ID()]; ok {
		return nil, ErrAlreadyInRoom
	}
	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := room.join(conn); err != nil {
		return nil, err
	}
	reg.members[conn.ID()] = code
	return room, nil
}

// LeaveRoom removes id from the room. Unless forced, the player must be a member
// of that room. The room is destroyed when its last member leaves.
func (reg *Registry) LeaveRoom(code, id string, force bool) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.leaveLocked(code, id, force)
}

// Disconnect takes a vanished session out of whatever room it was in.
func (reg *Registry) Disconnect(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, ok := reg.members[id]
	if !ok {
		return
	}
	if err := reg.leaveLocked(code, id, true); err != nil {
		log.Warn().Err(err).Str("room", code).Str("player", id).Msg("disconnect cleanup failed")
	}
}

func (reg *Registry) leaveLocked(code, id string, force bool) error {
	if !force && reg.members[id] != code {
		return ErrNotInRoom
	}
	room, ok := reg.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}

	remaining, err := room.leave(id)
	if reg.members[id] == code {
		delete(reg.members, id)
	}
	if err != nil {
		return err
	}

	if remaining == 0 {
		delete(reg.rooms, code)
		reg.idGenerator.Dispose(code)
		log.Info().Str("room", code).Msg("room destroyed")
	}
	return nil
}

// Resolve looks up a live room by code, returning nil when there is none.
func (reg *Registry) Resolve(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[code]
}

// RoomOf returns the code of the room id belongs to, or "".
func (reg *Registry) RoomOf(id string) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.members[id]
}

// MemberRoom resolves code and checks that id belongs to it.
func (reg *Registry) MemberRoom(code, id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if reg.members[id] != code {
		return nil, ErrNotInRoom
	}
	return room, nil
}

func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// Shutdown stops every room timer. Rooms stay registered so in-flight requests
// still resolve, but late classifications are discarded.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for _, room := range reg.rooms {
		room.shutdown()
	}
	log.Info().Int("rooms", len(reg.rooms)).Msg("registry shut down")
}
