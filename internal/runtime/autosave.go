package runtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/pkg/domain"
)

// DefaultAutosaveEntries bounds the retained checkpoint ring when MaxEntries
// is unset.
const DefaultAutosaveEntries = 20

// AutosaveConfig controls the checkpoint subsystem.
type AutosaveConfig struct {
	// Enabled turns automatic triggers on. Manual checkpoints work
	// regardless.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Triggers selects which events capture a checkpoint. Empty means all
	// trigger kinds.
	Triggers []domain.AutosaveTrigger `json:"triggers,omitempty" yaml:"triggers,omitempty"`

	// Throttle is the minimum spacing between automatic checkpoints,
	// measured on the monotonic clock so wall-time jumps cannot starve or
	// flood saves. Requests inside the window coalesce to its trailing
	// edge, latest state wins, none are dropped.
	Throttle time.Duration `json:"throttle" yaml:"throttle"`

	// Interval, when positive, captures on a fixed cadence in addition to
	// event triggers.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// MaxEntries bounds the retained ring of checkpoints; the oldest entry
	// is evicted on overflow.
	MaxEntries int `json:"maxEntries" yaml:"maxEntries"`
}

// AutosaverDeps wires the autosaver to its host.
type AutosaverDeps struct {
	// Snapshot captures the live state for interval ticks. Called on timer
	// goroutines only, never while the host holds its own lock.
	Snapshot func() *domain.Checkpoint

	// Persist writes a captured checkpoint out. Nil keeps checkpoints in
	// memory only. Errors are logged, an autosave never fails the
	// transition that triggered it.
	Persist func(*domain.Checkpoint) error

	// OnCheckpoint observes every captured checkpoint.
	OnCheckpoint func(*domain.Checkpoint)

	Logger *slog.Logger
}

// Autosaver captures throttled checkpoints into a bounded ring and hands
// them to the persist function. It is safe for concurrent use: hosts notify
// it from their commit paths while its own timers fire on background
// goroutines.
type Autosaver struct {
	mu  sync.Mutex
	cfg AutosaveConfig

	snapshot     func() *domain.Checkpoint
	persist      func(*domain.Checkpoint) error
	onCheckpoint func(*domain.Checkpoint)
	logger       *slog.Logger

	entries  []domain.Checkpoint
	count    int
	last     domain.AutosaveTrigger
	lastAt   time.Time
	lastSave time.Time

	pending       *domain.Checkpoint
	pendingTimer  *time.Timer
	intervalTimer *time.Timer

	closed bool
}

// NewAutosaver builds an autosaver and starts the interval timer when one
// is configured.
func NewAutosaver(cfg AutosaveConfig, deps AutosaverDeps) *Autosaver {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultAutosaveEntries
	}

	a := &Autosaver{
		cfg:          cfg,
		snapshot:     deps.Snapshot,
		persist:      deps.Persist,
		onCheckpoint: deps.OnCheckpoint,
		logger:       deps.Logger,
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	if cfg.Enabled && cfg.Interval > 0 && a.snapshot != nil {
		a.intervalTimer = time.AfterFunc(cfg.Interval, a.intervalTick)
	}
	return a
}

// Notify offers a checkpoint for the given trigger. Inside the throttle
// window the checkpoint replaces any pending one and is captured at the
// window's trailing edge; outside it is captured immediately. The
// checkpoint must already be a detached deep copy.
func (a *Autosaver) Notify(trigger domain.AutosaveTrigger, cp *domain.Checkpoint) {
	if cp == nil {
		return
	}

	a.mu.Lock()
	if !a.cfg.Enabled || a.closed || !a.wants(trigger) {
		a.mu.Unlock()
		return
	}
	cp.Trigger = trigger

	now := time.Now()
	if a.cfg.Throttle > 0 && !a.lastSave.IsZero() {
		if wait := a.cfg.Throttle - now.Sub(a.lastSave); wait > 0 {
			a.pending = cp
			if a.pendingTimer == nil {
				a.pendingTimer = time.AfterFunc(wait, a.flushPending)
			}
			a.mu.Unlock()
			return
		}
	}

	a.storeLocked(cp, now)
	a.mu.Unlock()
	a.deliver(cp)
}

// ManualAutosave captures immediately, bypassing the throttle window and the
// enabled toggle. The throttle window for automatic saves is unaffected.
func (a *Autosaver) ManualAutosave(cp *domain.Checkpoint, label string) *domain.Checkpoint {
	if cp == nil {
		return nil
	}
	cp.Trigger = domain.TriggerManual
	cp.Label = label

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.storeLocked(cp, time.Now())
	a.mu.Unlock()

	a.deliver(cp)
	return cp
}

func (a *Autosaver) flushPending() {
	a.mu.Lock()
	cp := a.pending
	a.pending = nil
	a.pendingTimer = nil
	if cp == nil || a.closed {
		a.mu.Unlock()
		return
	}
	a.storeLocked(cp, time.Now())
	a.mu.Unlock()

	a.deliver(cp)
}

func (a *Autosaver) intervalTick() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.intervalTimer.Reset(a.cfg.Interval)
	a.mu.Unlock()

	if cp := a.snapshot(); cp != nil {
		a.Notify(domain.TriggerInterval, cp)
	}
}

// storeLocked stamps the checkpoint and appends it to the ring. Caller
// holds mu.
func (a *Autosaver) storeLocked(cp *domain.Checkpoint, now time.Time) {
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CapturedAt.IsZero() {
		cp.CapturedAt = now.UTC()
	}
	if cp.Trigger != domain.TriggerManual {
		a.lastSave = now
	}
	a.count++
	a.last = cp.Trigger
	a.lastAt = now

	a.entries = append(a.entries, *cp.Clone())
	if len(a.entries) > a.cfg.MaxEntries {
		a.entries = a.entries[1:]
	}
}

// deliver runs the observation hook and the persist function outside the
// mutex so storage latency never blocks the next notification.
func (a *Autosaver) deliver(cp *domain.Checkpoint) {
	if a.onCheckpoint != nil {
		a.onCheckpoint(cp)
	}
	if a.persist != nil {
		if err := a.persist(cp); err != nil {
			a.logger.Warn("autosave persist failed",
				"checkpoint", cp.ID,
				"trigger", cp.Trigger,
				"err", err)
		}
	}
}

func (a *Autosaver) wants(trigger domain.AutosaveTrigger) bool {
	if len(a.cfg.Triggers) == 0 {
		return true
	}
	for _, t := range a.cfg.Triggers {
		if t == trigger {
			return true
		}
	}
	return false
}

// Checkpoints returns a deep copy of the retained ring, oldest first.
func (a *Autosaver) Checkpoints() []domain.Checkpoint {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]domain.Checkpoint, len(a.entries))
	for i := range a.entries {
		out[i] = *a.entries[i].Clone()
	}
	return out
}

// Checkpoint returns the retained checkpoint with the given id, or nil.
func (a *Autosaver) Checkpoint(id string) *domain.Checkpoint {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.entries {
		if a.entries[i].ID == id {
			return a.entries[i].Clone()
		}
	}
	return nil
}

// Info reports bookkeeping for the save envelope: total captures, trigger
// and wall time of the most recent one.
func (a *Autosaver) Info() (count int, last domain.AutosaveTrigger, lastAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count, a.last, a.lastAt
}

// Restore re-seeds the ring and counters from a loaded save.
func (a *Autosaver) Restore(entries []domain.Checkpoint, count int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.entries = a.entries[:0]
	start := 0
	if len(entries) > a.cfg.MaxEntries {
		start = len(entries) - a.cfg.MaxEntries
	}
	for _, cp := range entries[start:] {
		a.entries = append(a.entries, *cp.Clone())
	}
	if count < len(a.entries) {
		count = len(a.entries)
	}
	a.count = count
}

// Stop cancels the timers, flushing any pending capture first so a throttled
// checkpoint is never lost to shutdown. Safe to call more than once.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	var cp *domain.Checkpoint
	if a.pendingTimer != nil {
		a.pendingTimer.Stop()
		a.pendingTimer = nil
		cp = a.pending
		a.pending = nil
	}
	if a.intervalTimer != nil {
		a.intervalTimer.Stop()
		a.intervalTimer = nil
	}
	if cp != nil && !a.closed {
		a.storeLocked(cp, time.Now())
	}
	a.closed = true
	a.mu.Unlock()

	if cp != nil {
		a.deliver(cp)
	}
}
