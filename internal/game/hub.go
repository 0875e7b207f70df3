package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tinygames/internal/logging"
	"tinygames/internal/storage"
)

// DefaultDailyBudget is the shared playtime ceiling per calendar day.
const DefaultDailyBudget = 1800

const (
	statsKeyPrefix  = "game-stats"
	budgetKeyPrefix = "daily-play-time"
	storeTimeout    = 5 * time.Second
)

// StatsStore is the key/value collaborator that holds stats and budgets.
type StatsStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Recorder receives a row for every ended session.
type Recorder interface {
	RecordSession(ctx context.Context, rec storage.SessionRecord) error
}

// EndFunc is called after a session completes or times out.
type EndFunc func(player string, game GameID, r Result)

// Option configures a Hub.
type Option func(*Hub)

// WithDailyBudget sets the daily budget in seconds.
func WithDailyBudget(seconds int) Option {
	return func(h *Hub) {
		if seconds > 0 {
			h.budget = seconds
		}
	}
}

// WithTickInterval sets how often running sessions lose one second. Zero
// disables the internal clock so callers drive Tick themselves.
func WithTickInterval(d time.Duration) Option {
	return func(h *Hub) { h.tick = d }
}

// WithRetention sets how long ended sessions stay readable.
func WithRetention(d time.Duration) Option {
	return func(h *Hub) { h.retention = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// WithRand seeds every new session from rng.
func WithRand(rng *rand.Rand) Option {
	return func(h *Hub) { h.rng = rng }
}

// WithRecorder stores a history row per ended session.
func WithRecorder(r Recorder) Option {
	return func(h *Hub) { h.recorder = r }
}

// Hub manages all live sessions, the daily budget and per-game statistics.
// All state is guarded by one mutex.
type Hub struct {
	mu        sync.Mutex
	sessions  map[string]*entry
	store     StatsStore
	recorder  Recorder
	budget    int
	tick      time.Duration
	retention time.Duration
	now       func() time.Time
	rng       *rand.Rand
	onEnd     []EndFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// entry is a session plus the hub's bookkeeping for it.
type entry struct {
	id       string
	player   string
	game     GameID
	limit    int
	session  Session
	state    State
	started  time.Time
	ended    time.Time
	stop     context.CancelFunc
	watchers map[chan []byte]struct{}
}

// NewHub creates a hub backed by store. A nil store keeps everything in memory.
// The janitor goroutine runs until Close.
func NewHub(store StatsStore, opts ...Option) *Hub {
	if store == nil {
		store = storage.NewMemory()
	}
	h := &Hub{
		sessions:  make(map[string]*entry),
		store:     store,
		budget:    DefaultDailyBudget,
		tick:      time.Second,
		retention: 10 * time.Minute,
		now:       time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	if h.rng == nil {
		h.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	h.ctx, h.cancel = context.WithCancel(context.Background())
	if h.retention > 0 {
		h.wg.Add(1)
		go h.janitor()
	}
	return h
}

// Close stops every session clock and the janitor.
func (h *Hub) Close() {
	h.cancel()
	h.wg.Wait()
}

// OnSessionEnd registers fn for completed and timed-out sessions.
func (h *Hub) OnSessionEnd(fn EndFunc) {
	h.mu.Lock()
	h.onEnd = append(h.onEnd, fn)
	h.mu.Unlock()
}

// DailyBudget is the configured daily ceiling in seconds.
func (h *Hub) DailyBudget() int { return h.budget }

// CanStart reports whether game fits in what is left of player's budget today.
func (h *Hub) CanStart(ctx context.Context, player string, game GameID) (bool, error) {
	info, ok := Lookup(game)
	if !ok {
		return false, ErrUnknownGame
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.loadBudget(ctx, player)
	if err != nil {
		return false, err
	}
	return h.fits(b, h.reservedLocked(player), info.TimeLimitSeconds), nil
}

// fits reports whether limit more seconds stay under the daily budget with
// the live sessions' reservations counted.
func (h *Hub) fits(b DailyBudget, reserved, limit int) bool {
	return b.SecondsUsedToday+reserved+limit <= h.budget
}

// reservedLocked is the most the player's live sessions can charge when they
// end. Their time is only added to the budget then.
func (h *Hub) reservedLocked(player string) int {
	n := 0
	for _, e := range h.sessions {
		if e.player == player && !e.state.Terminal() {
			n += e.session.MaxSeconds()
		}
	}
	return n
}

// Start opens a session. It fails with ErrBudgetExceeded when the time limit
// does not fit in the player's remaining budget.
func (h *Hub) Start(ctx context.Context, player string, game GameID, cfg Config) (Snapshot, error) {
	info, ok := Lookup(game)
	if !ok {
		return Snapshot{}, ErrUnknownGame
	}
	if cfg.TimeLimitSeconds <= 0 || cfg.TimeLimitSeconds > info.TimeLimitSeconds {
		cfg.TimeLimitSeconds = info.TimeLimitSeconds
	}

	h.mu.Lock()
	snap, ended, err := h.startLocked(ctx, player, game, cfg)
	h.mu.Unlock()

	h.notify(ended)
	return snap, err
}

func (h *Hub) startLocked(ctx context.Context, player string, game GameID, cfg Config) (Snapshot, *endEvent, error) {
	b, err := h.loadBudget(ctx, player)
	if err != nil {
		return Snapshot{}, nil, err
	}
	reserved := h.reservedLocked(player)
	if !h.fits(b, reserved, cfg.TimeLimitSeconds) {
		logging.Debugf("start refused player=%q game=%s used=%d reserved=%d limit=%d", player, game, b.SecondsUsedToday, reserved, cfg.TimeLimitSeconds)
		return Snapshot{}, nil, ErrBudgetExceeded
	}
	cfg.MaxTotalSeconds = h.budget - b.SecondsUsedToday - reserved
	s, err := NewSession(game, cfg, rand.New(rand.NewSource(h.rng.Int63())))
	if err != nil {
		return Snapshot{}, nil, err
	}
	e := &entry{
		id:       uuid.NewString(),
		player:   player,
		game:     game,
		limit:    cfg.TimeLimitSeconds,
		session:  s,
		state:    s.State(),
		started:  h.now(),
		watchers: make(map[chan []byte]struct{}),
	}
	h.sessions[e.id] = e
	logging.Debugf("session %s started player=%q game=%s limit=%ds", e.id, player, game, e.limit)

	var ended *endEvent
	if e.state.Terminal() {
		// a loaded chess position can already be mate
		ended = h.finishLocked(ctx, e)
	} else if h.tick > 0 {
		cctx, stop := context.WithCancel(h.ctx)
		e.stop = stop
		h.wg.Add(1)
		go h.runClock(cctx, e.id)
	}
	return h.snapshotLocked(e), ended, nil
}

// Input applies one event to a live session and returns the new snapshot.
// Domain rejections such as ErrInvalidMove come back with the unchanged snapshot.
func (h *Hub) Input(ctx context.Context, id string, in Input) (Snapshot, error) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return Snapshot{}, ErrUnknownSession
	}
	if e.state.Terminal() {
		snap := h.snapshotLocked(e)
		h.mu.Unlock()
		return snap, terminalErr(e.state)
	}
	err := e.session.Apply(in)
	ended := h.settleLocked(ctx, e)
	snap := h.snapshotLocked(e)
	h.broadcastLocked(e, snap)
	h.mu.Unlock()

	h.notify(ended)
	return snap, err
}

// Tick charges seconds to a live session. Ended sessions ignore it.
func (h *Hub) Tick(ctx context.Context, id string, seconds int) (Snapshot, error) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return Snapshot{}, ErrUnknownSession
	}
	if e.state.Terminal() {
		snap := h.snapshotLocked(e)
		h.mu.Unlock()
		return snap, nil
	}
	e.session.Tick(seconds)
	ended := h.settleLocked(ctx, e)
	snap := h.snapshotLocked(e)
	h.broadcastLocked(e, snap)
	h.mu.Unlock()

	h.notify(ended)
	return snap, nil
}

// Abandon ends a live session without touching statistics. The time already
// played still counts against the daily budget.
func (h *Hub) Abandon(ctx context.Context, id string) (Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return Snapshot{}, ErrUnknownSession
	}
	if e.state.Terminal() {
		return h.snapshotLocked(e), nil
	}
	e.state = Abandoned
	e.ended = h.now()
	if e.stop != nil {
		e.stop()
	}
	r := e.session.Result()
	if err := h.chargeBudget(ctx, e.player, r.TimeUsedSeconds); err != nil {
		logging.Logger().Error("charge budget", "session", e.id, "err", err)
	}
	h.record(ctx, e, r)
	logging.Debugf("session %s abandoned after %ds", e.id, r.TimeUsedSeconds)
	snap := h.snapshotLocked(e)
	h.broadcastLocked(e, snap)
	return snap, nil
}

// Snapshot returns the current view of a session.
func (h *Hub) Snapshot(id string) (Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return Snapshot{}, ErrUnknownSession
	}
	return h.snapshotLocked(e), nil
}

// Subscribe registers a watcher for snapshots of session id. The returned
// func unregisters it. Slow watchers miss updates rather than block the hub.
// The channel is closed after the terminal snapshot, or at once when the
// session has already ended.
func (h *Hub) Subscribe(id string) (<-chan []byte, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return nil, nil, ErrUnknownSession
	}
	ch := make(chan []byte, 16)
	if e.state.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}
	e.watchers[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		delete(e.watchers, ch)
		h.mu.Unlock()
	}, nil
}

// settleLocked finishes e when its session reached a terminal state and
// returns the end event to deliver once the lock is released.
func (h *Hub) settleLocked(ctx context.Context, e *entry) *endEvent {
	if !e.session.State().Terminal() {
		return nil
	}
	return h.finishLocked(ctx, e)
}

type endEvent struct {
	player string
	game   GameID
	result Result
	fns    []EndFunc
}

func (h *Hub) finishLocked(ctx context.Context, e *entry) *endEvent {
	e.state = e.session.State()
	e.ended = h.now()
	if e.stop != nil {
		e.stop()
	}
	r := e.session.Result()
	if err := h.updateStats(ctx, e.player, e.game, r); err != nil {
		logging.Logger().Error("update stats", "session", e.id, "err", err)
	}
	if err := h.chargeBudget(ctx, e.player, r.TimeUsedSeconds); err != nil {
		logging.Logger().Error("charge budget", "session", e.id, "err", err)
	}
	h.record(ctx, e, r)
	logging.Debugf("session %s %s after %ds", e.id, e.state, r.TimeUsedSeconds)
	fns := make([]EndFunc, len(h.onEnd))
	copy(fns, h.onEnd)
	return &endEvent{player: e.player, game: e.game, result: r, fns: fns}
}

func (h *Hub) notify(ev *endEvent) {
	if ev == nil {
		return
	}
	for _, fn := range ev.fns {
		fn(ev.player, ev.game, ev.result)
	}
}

func (h *Hub) record(ctx context.Context, e *entry, r Result) {
	if h.recorder == nil {
		return
	}
	rec := storage.SessionRecord{
		ID:              uuid.New(),
		SessionID:       e.id,
		Player:          e.player,
		Game:            string(e.game),
		State:           string(e.state),
		Won:             r.Won,
		Score:           r.Score,
		Mistakes:        r.Mistakes,
		MoveCount:       r.MoveCount,
		Winner:          r.Winner,
		TimeUsedSeconds: r.TimeUsedSeconds,
		StartedAt:       e.started,
		EndedAt:         e.ended,
	}
	if err := h.recorder.RecordSession(ctx, rec); err != nil {
		logging.Logger().Error("record session", "session", e.id, "err", err)
	}
}

func (h *Hub) snapshotLocked(e *entry) Snapshot {
	s := Snapshot{
		Kind:             "state",
		ID:               e.id,
		Player:           e.player,
		Game:             e.game,
		State:            e.state,
		TimeLimitSeconds: e.limit,
		Result:           e.session.Result(),
		View:             e.session.View(),
		StartedAt:        e.started,
		Watchers:         len(e.watchers),
	}
	if !e.ended.IsZero() {
		t := e.ended
		s.EndedAt = &t
	}
	return s
}

func (h *Hub) broadcastLocked(e *entry, snap Snapshot) {
	if len(e.watchers) == 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		logging.Logger().Error("encode snapshot", "session", e.id, "err", err)
		return
	}
	for ch := range e.watchers {
		select {
		case ch <- data:
		default:
		}
	}
	if snap.State.Terminal() {
		h.closeWatchersLocked(e)
	}
}

func (h *Hub) closeWatchersLocked(e *entry) {
	for ch := range e.watchers {
		close(ch)
		delete(e.watchers, ch)
	}
}

// runClock charges one second per tick until the session ends or ctx is cancelled.
func (h *Hub) runClock(ctx context.Context, id string) {
	defer h.wg.Done()
	t := time.NewTicker(h.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			sctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			snap, err := h.Tick(sctx, id, 1)
			cancel()
			if err != nil || snap.State.Terminal() {
				return
			}
		}
	}
}

func (h *Hub) janitor() {
	defer h.wg.Done()
	every := h.retention / 2
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-t.C:
			h.sweep()
		}
	}
}

// sweep forgets sessions that ended more than the retention window ago.
func (h *Hub) sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	cutoff := h.now().Add(-h.retention)
	n := 0
	for id, e := range h.sessions {
		if e.state.Terminal() && e.ended.Before(cutoff) {
			h.closeWatchersLocked(e)
			delete(h.sessions, id)
			n++
		}
	}
	if n > 0 {
		logging.Debugf("swept %d ended sessions", n)
	}
	return n
}

func statsKey(player string) string  { return playerKey(statsKeyPrefix, player) }
func budgetKey(player string) string { return playerKey(budgetKeyPrefix, player) }

func playerKey(prefix, player string) string {
	if player == "" {
		return prefix
	}
	return prefix + ":" + player
}

func (h *Hub) today() string { return h.now().Format("2006-01-02") }

// loadBudget returns today's budget. A record from another day reads as empty.
func (h *Hub) loadBudget(ctx context.Context, player string) (DailyBudget, error) {
	b := DailyBudget{Date: h.today()}
	raw, ok, err := h.store.Get(ctx, budgetKey(player))
	if err != nil {
		return b, errors.Wrap(err, "load budget")
	}
	if !ok {
		return b, nil
	}
	var stored DailyBudget
	if err := json.Unmarshal(raw, &stored); err != nil {
		return b, errors.Wrap(err, "decode budget")
	}
	if stored.Date != b.Date {
		return b, nil
	}
	return stored, nil
}

func (h *Hub) chargeBudget(ctx context.Context, player string, seconds int) error {
	b, err := h.loadBudget(ctx, player)
	if err != nil {
		return err
	}
	b.SecondsUsedToday += seconds
	raw, err := json.Marshal(b)
	if err != nil {
		return errors.Wrap(err, "encode budget")
	}
	return errors.Wrap(h.store.Set(ctx, budgetKey(player), raw), "save budget")
}

func (h *Hub) loadStats(ctx context.Context, player string) (map[GameID]StatsRecord, error) {
	stats := make(map[GameID]StatsRecord)
	raw, ok, err := h.store.Get(ctx, statsKey(player))
	if err != nil {
		return stats, errors.Wrap(err, "load stats")
	}
	if !ok {
		return stats, nil
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return stats, errors.Wrap(err, "decode stats")
	}
	return stats, nil
}

func (h *Hub) updateStats(ctx context.Context, player string, game GameID, r Result) error {
	stats, err := h.loadStats(ctx, player)
	if err != nil {
		return err
	}
	rec := stats[game]
	rec.GamesPlayed++
	rec.TotalTimeSeconds += r.TimeUsedSeconds
	if r.Score != nil && *r.Score > rec.BestScore {
		rec.BestScore = *r.Score
	}
	if r.Won != nil && *r.Won {
		rec.Wins++
	}
	rec.LastPlayed = h.now()
	stats[game] = rec
	raw, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, "encode stats")
	}
	return errors.Wrap(h.store.Set(ctx, statsKey(player), raw), "save stats")
}

// Stats returns the player's records keyed by game.
func (h *Hub) Stats(ctx context.Context, player string) (map[GameID]StatsRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadStats(ctx, player)
}

// Budget returns the player's budget for today.
func (h *Hub) Budget(ctx context.Context, player string) (DailyBudget, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadBudget(ctx, player)
}

// SkillLevel labels the player's record in game.
func (h *Hub) SkillLevel(ctx context.Context, player string, game GameID) (SkillLevel, error) {
	stats, err := h.Stats(ctx, player)
	if err != nil {
		return Beginner, err
	}
	return Skill(stats[game]), nil
}

// Progress is the player's 0..100 progress bar for game.
func (h *Hub) Progress(ctx context.Context, player string, game GameID) (float64, error) {
	stats, err := h.Stats(ctx, player)
	if err != nil {
		return 0, err
	}
	return Progress(stats[game]), nil
}

// Overview collects budget, catalog cards and totals for one player.
func (h *Hub) Overview(ctx context.Context, player string) (Overview, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.loadBudget(ctx, player)
	if err != nil {
		return Overview{}, err
	}
	stats, err := h.loadStats(ctx, player)
	if err != nil {
		return Overview{}, err
	}
	reserved := h.reservedLocked(player)
	o := Overview{
		Budget:           b,
		DailyMaxSeconds:  h.budget,
		RemainingSeconds: max(0, h.budget-b.SecondsUsedToday-reserved),
	}
	for _, info := range catalog {
		rec := stats[info.ID]
		o.Games = append(o.Games, Card{
			Info:     info,
			CanStart: h.fits(b, reserved, info.TimeLimitSeconds),
			Skill:    Skill(rec),
			Progress: Progress(rec),
			Stats:    rec,
		})
		if rec.GamesPlayed > 0 {
			o.GamesTried++
		}
		o.TotalWins += rec.Wins
	}
	return o, nil
}
