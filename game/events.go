package game

import "encoding/json"

// Inbound event names
const (
	EventCreateRoom = "createRoom"
	EventJoinRoom   = "joinRoom"
	EventLeaveRoom  = "leaveRoom"
	EventStartGame  = "startGame"
	EventReady      = "ready"
	EventUnready    = "unready"
	EventSkipColor  = "skipColor"
	EventData       = "data"
)

// Outbound-only event names. ready, unready, skipColor and data are echoed back
// under their inbound names.
const (
	EventConnected       = "connected"
	EventCreatedRoomName = "createdRoomName"
	EventJoinedRoom      = "joinedRoom"
	EventLeavedRoom      = "leavedRoom"
	EventGameStarted     = "gameStarted"
	EventCountdown       = "countdown"
	EventTime            = "time"
	EventGameEnded       = "gameEnded"
	EventError           = "error"
)

// InboundEvent is one frame received from a client.
type InboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Event is one frame sent to a client.
type Event struct {
	Name string   `json:"event"`
	Data Response `json:"data"`
}

// Response is the payload every outbound event carries.
type Response struct {
	Status  bool   `json:"status"`
	Message any    `json:"message,omitempty"`
	Client  string `json:"client,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type createRoomPayload struct {
	Solo bool `json:"solo"`
}

type roomPayload struct {
	Room string `json:"room"`
}

type guessPayload struct {
	Room  string `json:"room"`
	Image string `json:"image"`
}

type PlayerState struct {
	ID    string `json:"id"`
	Ready bool   `json:"ready"`
}

type playersData struct {
	Players []PlayerState `json:"players"`
}

type connectedData struct {
	ID string `json:"id"`
}

type gameStartedData struct {
	Color string `json:"color"`
	Round int    `json:"round"`
}

type timeLeftData struct {
	TimeLeft int `json:"timeLeft"`
}

type readyData struct {
	Ready string `json:"ready,omitempty"`
	// Unready is set instead of Ready for the unready event.
	Unready string `json:"unready,omitempty"`
}

// GameResult is what gameEnded reports. Winner is a player id, "draw", or empty.
type GameResult struct {
	Points int    `json:"points"`
	Winner string `json:"winner"`
}

// GuessResult is a player's standing after a guess or a skip.
type GuessResult struct {
	IsCorrect bool        `json:"-"`
	Points    int         `json:"points"`
	Color     string      `json:"color"`
	Winner    string      `json:"winner"`
	Ended     *GameResult `json:"-"`
}

func fail(name string, err error) Event {
	return Event{Name: name, Data: Response{Status: false, Message: publicMessage(err)}}
}
