package game

import (
	"colorhunt/results"
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// WinningScore is the number of correct guesses that ends a game early.
const WinningScore = 5

// SequenceLength is how many colours a game deals out.
const SequenceLength = 5

// DrawWinner is reported as the winner when the top scores are tied.
const DrawWinner = "draw"

const recordTimeout = 5 * time.Second

type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseDone       Phase = "done"
)

// Settings holds the round timing shared by every room of a registry.
type Settings struct {
	CountdownTicks int
	RoundTicks     int
	TickInterval   time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		CountdownTicks: 5,
		RoundTicks:     60,
		TickInterval:   time.Second,
	}
}

// dependencies are what a room borrows from its registry.
type dependencies struct {
	settings   Settings
	families   []string
	classifier Classifier
	tickers    PeriodicTickerChannelCreator
	recorder   ResultRecorder
	intn       func(n int) int
}

type player struct {
	id         string
	conn       Conn
	creator    bool
	ready      bool
	score      int
	color      string
	colors     []string
	colorIndex int
}

// Room is one game room. All state is guarded by mu, and every broadcast happens
// while mu is held so members observe events in the order they were produced.
type Room struct {
	mu       sync.Mutex
	code     string
	solo     bool
	players  []*player
	phase    Phase
	winner   string
	result   GameResult
	sequence []string
	round    int
	game     uint64
	timer    *roundTimer
	closed   bool
	deps     *dependencies
}

func newRoom(code string, deps *dependencies) *Room {
	return &Room{
		code:  code,
		phase: PhaseWaiting,
		deps:  deps,
	}
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Solo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.solo
}

func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

func (r *Room) Winner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.winner
}

// Creator returns the id of the current room creator, or "" for an empty room.
func (r *Room) Creator() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.creator {
			return p.id
		}
	}
	return ""
}

// Players returns the roster in join order.
func (r *Room) Players() []PlayerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Room) Score(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findLocked(id); p != nil {
		return p.score
	}
	return 0
}

func (r *Room) Color(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findLocked(id); p != nil {
		return p.color
	}
	return ""
}

// AddPlayer appends a new member. The first member becomes the creator, and a
// solo flag marks the whole room as single player.
func (r *Room) AddPlayer(conn Conn, solo bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addPlayerLocked(conn, solo)
}

func (r *Room) addPlayerLocked(conn Conn, solo bool) error {
	if r.findLocked(conn.ID()) != nil {
		return ErrDuplicatePlayer
	}
	p := &player{
		id:      conn.ID(),
		conn:    conn,
		creator: len(r.players) == 0,
	}
	if r.phase == PhaseInProgress && len(r.sequence) > 0 {
		p.colors = slices.Clone(r.sequence)
		p.color = p.colors[0]
	}
	r.players = append(r.players, p)
	if solo {
		r.solo = true
	}
	return nil
}

// RemovePlayer drops a member. Losing a player mid-game forfeits the game to the
// first remaining player and finishes it.
func (r *Room) RemovePlayer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.removePlayerLocked(id)
	return err
}

func (r *Room) removePlayerLocked(id string) (*player, error) {
	idx := slices.IndexFunc(r.players, func(p *player) bool { return p.id == id })
	if idx == -1 {
		return nil, ErrUnknownPlayer
	}
	gone := r.players[idx]
	r.players = slices.Delete(r.players, idx, idx+1)
	if gone.creator && len(r.players) > 0 {
		r.players[0].creator = true
	}

	if r.phase == PhaseInProgress {
		if len(r.players) == 0 {
			r.cancelTimerLocked()
			r.phase = PhaseDone
			return gone, nil
		}
		r.winner = r.players[0].id
		r.finishLocked()
	}
	return gone, nil
}

// SetReady flips a member's ready flag and tells the room about it. Unknown ids
// are ignored.
func (r *Room) SetReady(id string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseInProgress {
		return ErrAlreadyStarted
	}
	p := r.findLocked(id)
	if p == nil {
		return nil
	}
	p.ready = ready

	if ready {
		r.broadcastLocked(EventReady, Response{Status: true, Client: id, Data: readyData{Ready: id}})
	} else {
		r.broadcastLocked(EventUnready, Response{Status: true, Client: id, Data: readyData{Unready: id}})
	}
	return nil
}

// StartGame deals a fresh colour sequence, resets every score, announces the
// game and starts the countdown.
func (r *Room) StartGame(id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findLocked(id) == nil {
		return "", ErrNotInRoom
	}
	if len(r.players) == 0 || (!r.solo && len(r.players) < 2) {
		return "", ErrNotEnoughPlayers
	}
	for _, p := range r.players {
		if !p.ready {
			return "", ErrPlayersNotReady
		}
	}
	if r.phase == PhaseInProgress {
		return "", ErrAlreadyStarted
	}

	sequence := r.drawSequence()
	if len(sequence) == 0 {
		return "", ErrNoColorsLeft
	}
	r.sequence = sequence
	r.round = 1
	r.winner = ""
	r.result = GameResult{}
	r.game++
	for _, p := range r.players {
		p.score = 0
		p.colors = slices.Clone(r.sequence)
		p.colorIndex = 0
		p.color = p.colors[0]
	}
	r.phase = PhaseInProgress

	color := r.sequence[0]
	r.broadcastLocked(EventGameStarted, Response{
		Status: true,
		Data:   gameStartedData{Color: color, Round: r.round},
	})
	r.startTimerLocked()

	log.Info().
		Str("room", r.code).
		Int("players", len(r.players)).
		Uint64("game", r.game).
		Msg("game started")
	return color, nil
}

// EvaluateGuess classifies image against the player's current colour. The room
// lock is released while the classifier runs. A verdict that arrives after the
// game or the player went away is dropped with ErrStaleGuess, and one for a
// colour the player already left counts as a miss. Ended is set on the result
// when this guess won the game.
func (r *Room) EvaluateGuess(ctx context.Context, id, image string) (GuessResult, error) {
	r.mu.Lock()
	if r.phase != PhaseInProgress {
		r.mu.Unlock()
		return GuessResult{}, ErrGameNotActive
	}
	p := r.findLocked(id)
	if p == nil {
		r.mu.Unlock()
		return GuessResult{}, ErrUnknownPlayer
	}
	family, game := p.color, r.game
	r.mu.Unlock()

	verdict, err := r.deps.classifier.Classify(ctx, image, family)

	r.mu.Lock()
	defer r.mu.Unlock()

	p = r.findLocked(id)
	if r.closed || r.game != game || r.phase != PhaseInProgress || p == nil {
		return GuessResult{}, ErrStaleGuess
	}
	// the player moved on to another colour while this image was classified
	if p.color != family {
		return r.resultLocked(p, false), nil
	}
	if err != nil {
		return r.resultLocked(p, false), fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	if !verdict.IsMatch {
		return r.resultLocked(p, false), nil
	}

	p.score++
	if p.score >= WinningScore {
		r.winner = p.id
		ended := r.finishLocked()
		r.broadcastLocked(EventGameEnded, Response{Status: true, Data: ended})
		res := r.resultLocked(p, true)
		res.Ended = &ended
		return res, nil
	}

	p.colorIndex = min(p.colorIndex+1, len(p.colors)-1)
	p.color = p.colors[p.colorIndex]
	return r.resultLocked(p, true), nil
}

// SkipColor swaps the player's current colour for a playable family that is not
// already part of their sequence.
func (r *Room) SkipColor(id string) (GuessResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseInProgress {
		return GuessResult{}, ErrGameNotActive
	}
	p := r.findLocked(id)
	if p == nil {
		return GuessResult{}, ErrUnknownPlayer
	}

	var candidates []string
	for _, family := range r.deps.families {
		if !slices.Contains(p.colors, family) {
			candidates = append(candidates, family)
		}
	}
	if len(candidates) == 0 {
		return r.resultLocked(p, false), ErrNoColorsLeft
	}

	next := candidates[r.deps.intn(len(candidates))]
	p.colors[p.colorIndex] = next
	p.color = next
	return r.resultLocked(p, false), nil
}

// GameEnd resolves the current game, stops its timer and moves the room to done.
func (r *Room) GameEnd() GameResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishLocked()
}

// leave removes a member, tells the room (the leaver included), and settles a
// forfeited game. It returns how many members remain.
func (r *Room) leave(id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	gone, err := r.removePlayerLocked(id)
	if err != nil {
		return len(r.players), err
	}

	left := Event{Name: EventLeavedRoom, Data: Response{Status: true, Client: id}}
	if err := gone.conn.Send(left); err != nil {
		log.Warn().Err(err).Str("room", r.code).Str("player", id).Msg("failed to notify leaving player")
	}
	r.broadcastLocked(EventLeavedRoom, left.Data)

	if len(r.players) == 0 {
		r.cancelTimerLocked()
		r.closed = true
		return 0, nil
	}

	if r.winner != "" {
		ended := r.finishLocked()
		r.broadcastLocked(EventGameEnded, Response{Status: true, Data: ended})
	}
	return len(r.players), nil
}

// join adds a member to a room created by someone else.
func (r *Room) join(conn Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.solo {
		return ErrRoomFull
	}
	if err := r.addPlayerLocked(conn, false); err != nil {
		return err
	}
	r.broadcastLocked(EventJoinedRoom, Response{
		Status: true,
		Client: conn.ID(),
		Data:   playersData{Players: r.snapshotLocked()},
	})
	return nil
}

// shutdown stops the timer and refuses any late classification.
func (r *Room) shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelTimerLocked()
	r.closed = true
}

// gameEndLocked decides the winner: an already recorded winner keeps the game,
// a solo player needs a full score, and otherwise the top score wins.
func (r *Room) gameEndLocked() GameResult {
	r.phase = PhaseDone
	if len(r.players) == 0 {
		return GameResult{Winner: r.winner}
	}

	if r.winner != "" {
		if p := r.findLocked(r.winner); p != nil {
			return GameResult{Points: p.score, Winner: p.id}
		}
		if r.result.Winner == r.winner {
			// a finished game keeps its result after the winner leaves
			return r.result
		}
	}

	if r.solo {
		p := r.players[0]
		if p.score >= WinningScore {
			r.winner = p.id
		} else {
			r.winner = ""
		}
		return GameResult{Points: p.score, Winner: r.winner}
	}

	best := r.players[0]
	tied := false
	for _, p := range r.players[1:] {
		switch {
		case p.score > best.score:
			best, tied = p, false
		case p.score == best.score:
			tied = true
		}
	}
	if tied {
		r.winner = DrawWinner
	} else {
		r.winner = best.id
	}
	return GameResult{Points: best.score, Winner: r.winner}
}

func (r *Room) finishLocked() GameResult {
	wasActive := r.phase == PhaseInProgress
	r.cancelTimerLocked()
	result := r.gameEndLocked()
	r.result = result
	if wasActive {
		log.Info().
			Str("room", r.code).
			Str("winner", result.Winner).
			Int("points", result.Points).
			Msg("game finished")
		r.recordLocked(result)
	}
	return result
}

func (r *Room) recordLocked(result GameResult) {
	rec := r.deps.recorder
	if rec == nil {
		return
	}
	summary := results.Summary{
		Room:     r.code,
		Solo:     r.solo,
		Winner:   result.Winner,
		Points:   result.Points,
		Scores:   make(map[string]int, len(r.players)),
		Finished: time.Now().UTC(),
	}
	for _, p := range r.players {
		summary.Scores[p.id] = p.score
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := rec.Publish(ctx, summary); err != nil {
			log.Warn().Err(err).Str("room", summary.Room).Msg("failed to record game result")
		}
	}()
}

func (r *Room) resultLocked(p *player, correct bool) GuessResult {
	return GuessResult{
		IsCorrect: correct,
		Points:    p.score,
		Color:     p.color,
		Winner:    r.winner,
	}
}

func (r *Room) drawSequence() []string {
	families := slices.Clone(r.deps.families)
	for i := len(families) - 1; i > 0; i-- {
		j := r.deps.intn(i + 1)
		families[i], families[j] = families[j], families[i]
	}
	return families[:min(SequenceLength, len(families))]
}

func (r *Room) findLocked(id string) *player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) snapshotLocked() []PlayerState {
	out := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, PlayerState{ID: p.id, Ready: p.ready})
	}
	return out
}

func (r *Room) broadcastLocked(name string, resp Response) {
	e := Event{Name: name, Data: resp}
	for _, p := range r.players {
		if err := p.conn.Send(e); err != nil {
			log.Warn().Err(err).Str("room", r.code).Str("player", p.id).Str("event", name).Msg("dropped event")
		}
	}
}

func defaultIntn(n int) int {
	return rand.IntN(n)
}
