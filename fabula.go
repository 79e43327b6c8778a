package fabula

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"log/slog"

	"github.com/tmarche/fabula/internal/logging"
	"github.com/tmarche/fabula/internal/runtime"
	"github.com/tmarche/fabula/pkg/adapters/loamstory"
	"github.com/tmarche/fabula/pkg/adapters/memory"
	"github.com/tmarche/fabula/pkg/adapters/storyfile"
	"github.com/tmarche/fabula/pkg/domain"
	"github.com/tmarche/fabula/pkg/ports"
	"github.com/tmarche/fabula/pkg/saves"
	"github.com/tmarche/fabula/pkg/schema"
)

// Version is the engine release stamped into save envelopes.
const Version = "0.4.0"

// AutosaveSlot is the save key the autosaver persists rolling checkpoints
// under.
const AutosaveSlot = "autosave"

// Aliases so callers can configure the engine without reaching into
// internal packages.
type (
	// UndoRedoConfig bounds the undo and redo stacks.
	UndoRedoConfig = runtime.UndoRedoConfig
	// AutosaveConfig controls checkpoint capture cadence.
	AutosaveConfig = runtime.AutosaveConfig
	// StackResult reports the outcome of an undo or redo attempt.
	StackResult = runtime.StackResult
)

// Engine is the high-level entry point for the Fabula library. It wraps the
// internal runtime behind one mutex, so a single Engine is safe for
// concurrent use; each playthrough gets its own Engine.
type Engine struct {
	mu sync.Mutex
	rt *runtime.Engine

	story     *domain.Story
	loader    ports.StoryLoader
	saves     *saves.Manager
	autosaver *runtime.Autosaver
	logger    *slog.Logger
	hooks     domain.LifecycleHooks

	store       ports.StorageAdapter
	locker      ports.DistributedLocker
	lockTTL     time.Duration
	autosaveCfg runtime.AutosaveConfig
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. Combine several hook
// sets with observability.MergeHooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithStore sets the storage adapter used by Save and Load. The default is
// an in-process memory store, which means saves vanish with the process.
func WithStore(store ports.StorageAdapter) Option {
	return func(e *Engine) {
		if store != nil {
			e.store = store
		}
	}
}

// WithLocker extends save-slot locking across hosts sharing a backend.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL bounds the distributed slot lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithAutosave enables automatic checkpoints. Manual checkpoints work even
// without this option.
func WithAutosave(cfg AutosaveConfig) Option {
	return func(e *Engine) {
		e.autosaveCfg = cfg
	}
}

// WithUndoRedo bounds or disables the undo and redo stacks.
func WithUndoRedo(cfg UndoRedoConfig) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithUndoRedo(cfg))
	}
}

// WithPredicate registers a named predicate for choice conditions and
// custom requirements.
func WithPredicate(name string, p domain.Predicate) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithPredicate(name, p))
	}
}

// WithPredicates registers a whole predicate map at once, typically a
// predicates.Registry snapshot shared across engines.
func WithPredicates(ps map[string]domain.Predicate) Option {
	return func(e *Engine) {
		for name, p := range ps {
			e.runtimeOpts = append(e.runtimeOpts, runtime.WithPredicate(name, p))
		}
	}
}

// WithInventoryKey overrides the flag the inventory requirements read.
func WithInventoryKey(key string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithInventoryKey(key))
	}
}

// WithClockKey overrides the flag time_window requirements read.
func WithClockKey(key string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClockKey(key))
	}
}

// WithInitialFlags seeds the starting flags of every fresh playthrough.
func WithInitialFlags(flags map[string]any) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithInitialFlags(flags))
	}
}

// New initializes an Engine for the given story. The story is validated
// here; a broken graph never produces an Engine.
func New(story *domain.Story, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:  logging.NewNop(),
		lockTTL: saves.DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	}
	runtimeOpts = append(runtimeOpts, e.runtimeOpts...)

	rt, err := runtime.NewEngine(story, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	e.rt = rt
	e.story = rt.Story()

	if e.store == nil {
		e.store = memory.New()
	}
	saveOpts := []saves.Option{saves.WithLogger(e.logger), saves.WithLockTTL(e.lockTTL)}
	if e.locker != nil {
		saveOpts = append(saveOpts, saves.WithLocker(e.locker))
	}
	e.saves = saves.NewManager(e.store, saveOpts...)

	e.autosaver = runtime.NewAutosaver(e.autosaveCfg, runtime.AutosaverDeps{
		Snapshot:     e.captureCheckpoint,
		Persist:      e.persistCheckpoint,
		OnCheckpoint: e.emitCheckpoint,
		Logger:       e.logger,
	})

	return e, nil
}

// NewFromLoader loads a story through the given loader and builds an
// Engine from it. The loader is kept so Watch can report source changes.
func NewFromLoader(ctx context.Context, loader ports.StoryLoader, opts ...Option) (*Engine, error) {
	story, err := loader.LoadStory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load story: %w", err)
	}
	e, err := New(story, opts...)
	if err != nil {
		return nil, err
	}
	e.loader = loader
	return e, nil
}

// Open builds an Engine from a path: a directory is treated as a Loam
// story repository, anything else as a single YAML or JSON story file.
func Open(path string, opts ...Option) (*Engine, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open story path: %w", err)
	}

	var loader ports.StoryLoader
	if info.IsDir() {
		loader, err = loamstory.Open(path)
		if err != nil {
			return nil, err
		}
	} else {
		loader = storyfile.New(path)
	}
	return NewFromLoader(context.Background(), loader, opts...)
}

// Close stops the autosaver, flushing any pending trailing-edge capture.
// The engine itself stays usable for in-memory operations afterwards.
func (e *Engine) Close() error {
	e.autosaver.Stop()
	return nil
}

// Story returns the immutable narrative graph. Treat it as read-only.
func (e *Engine) Story() *domain.Story {
	return e.story
}

// CurrentNode returns the node the playthrough sits on.
func (e *Engine) CurrentNode() *domain.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.CurrentNode()
}

// CurrentNodeID returns the current node id.
func (e *Engine) CurrentNodeID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	node := e.rt.CurrentNode()
	if node == nil {
		return ""
	}
	return node.ID
}

// IsEnding reports whether the playthrough reached a node with no choices.
func (e *Engine) IsEnding() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	node := e.rt.CurrentNode()
	return node != nil && node.IsEnding()
}

// AvailableChoices returns the gated choice list of the current node in
// authored order.
func (e *Engine) AvailableChoices() []domain.Choice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.AvailableChoices()
}

// SelectChoice commits a choice: flags merge, history grows, the current
// node advances. On any error the state is untouched.
func (e *Engine) SelectChoice(choice domain.Choice) error {
	e.mu.Lock()
	err := e.rt.SelectChoice(choice)
	var cp *domain.Checkpoint
	if err == nil {
		cp = e.checkpointLocked()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.autosaver.Notify(domain.TriggerChoice, cp)
	return nil
}

// SelectChoiceByIndex commits the i-th available choice. The index refers
// to the slice AvailableChoices returned, zero-based.
func (e *Engine) SelectChoiceByIndex(i int) error {
	e.mu.Lock()
	choices := e.rt.AvailableChoices()
	if i < 0 || i >= len(choices) {
		e.mu.Unlock()
		return &domain.InvalidChoiceError{NodeID: e.currentIDLocked(), Choice: fmt.Sprintf("index %d", i)}
	}
	choice := choices[i]
	err := e.rt.SelectChoice(choice)
	var cp *domain.Checkpoint
	if err == nil {
		cp = e.checkpointLocked()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.autosaver.Notify(domain.TriggerChoice, cp)
	return nil
}

// Flags returns a deep copy of the current flags.
func (e *Engine) Flags() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, _ := e.rt.Snapshot()
	return state.Flags
}

// Flag returns one flag value (deep-copied) and whether it exists.
func (e *Engine) Flag(key string) (any, bool) {
	e.mu.Lock()
	state, _ := e.rt.Snapshot()
	e.mu.Unlock()

	v, ok := state.Flags[key]
	return v, ok
}

// SetFlag writes one flag. Host-driven values like the story clock or
// inventory go through here; the write triggers a flag_change autosave.
func (e *Engine) SetFlag(key string, value any) {
	e.mu.Lock()
	e.rt.SetFlag(key, value)
	cp := e.checkpointLocked()
	e.mu.Unlock()

	e.autosaver.Notify(domain.TriggerFlagChange, cp)
}

// History returns a copy of the visited node path, oldest first.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, _ := e.rt.Snapshot()
	return state.History
}

// Reset returns the playthrough to the initial node with fresh flags and
// empty stacks. Branch analytics are cleared too.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rt.Reset()
}

// Undo steps back over the last committed transition. An empty stack is a
// result, not an error.
func (e *Engine) Undo() StackResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.Undo()
}

// Redo reapplies the most recently undone transition.
func (e *Engine) Redo() StackResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.Redo()
}

// StackDepths reports the undo and redo stack sizes.
func (e *Engine) StackDepths() (undo, redo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.StackDepths()
}

// CurrentFlow returns the active chapter and flow, or nils for stories
// without chapters.
func (e *Engine) CurrentFlow() (*domain.Chapter, *domain.Flow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.CurrentFlow()
}

// AvailableBranches lists the branch options available at the current
// position, authored points before dynamic ones.
func (e *Engine) AvailableBranches() []domain.BranchOption {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.AvailableBranches()
}

// ExecuteBranch routes the playthrough through a branch option into its
// target flow. The transition is atomic: any failure leaves the state
// untouched.
func (e *Engine) ExecuteBranch(optionID string) error {
	e.mu.Lock()
	err := e.rt.ExecuteBranch(optionID)
	var cp *domain.Checkpoint
	if err == nil {
		cp = e.checkpointLocked()
	}
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.autosaver.Notify(domain.TriggerChoice, cp)
	return nil
}

// InsertDynamicBranch adds a branch point at runtime. It reports whether
// the point was accepted; requirement-declined insertion is not an error.
func (e *Engine) InsertDynamicBranch(bp domain.BranchPoint) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.InsertDynamicBranch(bp)
}

// RemoveDynamicBranch removes a runtime-inserted branch point.
func (e *Engine) RemoveDynamicBranch(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.RemoveDynamicBranch(id)
}

// SuggestedBranch picks a weighted suggestion among the available options,
// seeded by the "seed" flag for replayability.
func (e *Engine) SuggestedBranch() *domain.BranchOption {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.SuggestedBranch()
}

// BranchAnalytics returns a copy of the branching state: taken history,
// usage counters and the most-popular list.
func (e *Engine) BranchAnalytics() *domain.BranchingState {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, branching := e.rt.Snapshot()
	return branching
}

// ManualCheckpoint captures a labeled checkpoint immediately, bypassing
// both the autosave toggle and the throttle.
func (e *Engine) ManualCheckpoint(label string) *domain.Checkpoint {
	e.mu.Lock()
	cp := e.checkpointLocked()
	e.mu.Unlock()

	return e.autosaver.ManualAutosave(cp, label)
}

// Checkpoints returns the retained checkpoint ring, oldest first.
func (e *Engine) Checkpoints() []domain.Checkpoint {
	return e.autosaver.Checkpoints()
}

// RestoreCheckpoint rewinds the playthrough to a retained checkpoint.
// Undo and redo stacks are cleared; the checkpoint ring is kept.
func (e *Engine) RestoreCheckpoint(id string) error {
	cp := e.autosaver.Checkpoint(id)
	if cp == nil {
		return fmt.Errorf("checkpoint %q not found", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rt.Restore(cp.State, cp.Branching)
}

// Save serializes the playthrough into a checksummed envelope and writes
// it under the given key. Storage IO happens outside the engine lock.
func (e *Engine) Save(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("save key must not be empty")
	}

	e.mu.Lock()
	payload := e.payloadLocked()
	e.mu.Unlock()

	data, err := encodePayload(payload)
	if err != nil {
		return err
	}

	if err := e.saves.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}

	e.logger.Debug("playthrough saved", "key", key, "bytes", len(data))
	e.emitSave(domain.EventSave, key, len(data))
	return nil
}

// Load restores the playthrough from a saved envelope. The checksum is
// always verified; a tampered save never touches the engine.
func (e *Engine) Load(ctx context.Context, key string) error {
	data, err := e.saves.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", key, err)
	}

	env, err := schema.Decode(data)
	if err != nil {
		return err
	}
	payload, err := schema.Deserialize(env, schema.DecodeOptions{ValidateChecksum: true})
	if err != nil {
		return err
	}

	e.mu.Lock()
	err = e.rt.Restore(payload.State(), payload.Branching)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	count := len(payload.Checkpoints)
	if payload.Autosave != nil && payload.Autosave.Count > count {
		count = payload.Autosave.Count
	}
	e.autosaver.Restore(payload.Checkpoints, count)

	e.logger.Debug("playthrough loaded", "key", key, "bytes", len(data))
	e.emitSave(domain.EventLoad, key, len(data))
	return nil
}

// DeleteSave removes a save slot. Missing slots are not an error.
func (e *Engine) DeleteSave(ctx context.Context, key string) error {
	return e.saves.Delete(ctx, key)
}

// ListSaves returns the stored slot keys.
func (e *Engine) ListSaves(ctx context.Context) ([]string, error) {
	return e.saves.List(ctx)
}

// SaveMetadata reports size and update time of a slot without loading it,
// when the adapter supports that.
func (e *Engine) SaveMetadata(ctx context.Context, key string) (*ports.SaveMetadata, error) {
	return e.saves.Metadata(ctx, key)
}

// Saves returns the save manager, for hosts that need direct slot access.
func (e *Engine) Saves() *saves.Manager {
	return e.saves
}

// Watch reports story-source changes when the loader supports watching, as
// Loam repositories do. Hosts use it to hot-reload while authoring. Engines
// built straight from a Story have no source to watch.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("story source does not support watching")
}

// currentIDLocked reads the current node id. Caller holds e.mu.
func (e *Engine) currentIDLocked() string {
	if node := e.rt.CurrentNode(); node != nil {
		return node.ID
	}
	return ""
}

// checkpointLocked snapshots the playthrough into a checkpoint. Caller
// holds e.mu.
func (e *Engine) checkpointLocked() *domain.Checkpoint {
	state, branching := e.rt.Snapshot()
	return &domain.Checkpoint{
		State:     state,
		Branching: branching,
	}
}

// payloadLocked freezes the full playthrough, checkpoint ring included,
// into an envelope payload. Caller holds e.mu.
func (e *Engine) payloadLocked() schema.Payload {
	state, branching := e.rt.Snapshot()
	count, last, lastAt := e.autosaver.Info()

	payload := schema.NewPayload(state)
	payload.Branching = branching
	payload.Checkpoints = e.autosaver.Checkpoints()
	payload.Autosave = &schema.AutosaveInfo{
		LastTrigger: last,
		SavedAt:     lastAt,
		Count:       count,
	}
	if e.story.Title != "" {
		payload.Meta = map[string]string{"title": e.story.Title}
	}
	return payload
}

// captureCheckpoint feeds the autosaver's interval timer. It takes the
// engine lock, so it must never be called while holding it.
func (e *Engine) captureCheckpoint() *domain.Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkpointLocked()
}

// persistCheckpoint writes a rolling autosave envelope. The checkpoint is
// self-contained, so no engine lock is needed here.
func (e *Engine) persistCheckpoint(cp *domain.Checkpoint) error {
	payload := schema.NewPayload(cp.State)
	payload.Branching = cp.Branching

	data, err := encodePayload(payload)
	if err != nil {
		return err
	}
	return e.saves.Save(context.Background(), AutosaveSlot, data)
}

func (e *Engine) emitCheckpoint(cp *domain.Checkpoint) {
	if e.hooks.OnCheckpoint == nil {
		return
	}
	e.hooks.OnCheckpoint(context.Background(), &domain.CheckpointEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now().UTC(),
			Type:      domain.EventCheckpoint,
		},
		CheckpointID: cp.ID,
		Trigger:      cp.Trigger,
	})
}

func (e *Engine) emitSave(t domain.EventType, key string, size int) {
	hook := e.hooks.OnSave
	if t == domain.EventLoad {
		hook = e.hooks.OnLoad
	}
	if hook == nil {
		return
	}
	hook(context.Background(), &domain.SaveEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now().UTC(),
			Type:      t,
		},
		Key:   key,
		Bytes: size,
	})
}

func encodePayload(payload schema.Payload) ([]byte, error) {
	env, err := schema.Serialize(payload, Version)
	if err != nil {
		return nil, err
	}
	return schema.Encode(env)
}
