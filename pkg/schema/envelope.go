package schema

import (
	"time"

	"github.com/tmarche/fabula/pkg/domain"
)

const (
	// Version is the envelope schema version written by this package.
	// It changes only when the payload layout changes incompatibly.
	Version = 1

	// ChecksumAlgorithm identifies how Envelope.Checksum is computed.
	// Recorded so future algorithms can coexist with old saves.
	ChecksumAlgorithm = "sha256"
)

// Envelope wraps a serialized playthrough with versioning and integrity data.
type Envelope struct {
	Version       int       `json:"version"`
	EngineVersion string    `json:"engineVersion"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       Payload   `json:"payload"`
	Checksum      string    `json:"checksum"`
}

// Payload is the envelope body: everything needed to restore a playthrough.
type Payload struct {
	CurrentNodeID string         `json:"currentNodeId"`
	Flags         map[string]any `json:"flags"`
	History       []string       `json:"history"`

	Checkpoints []domain.Checkpoint    `json:"checkpoints,omitempty"`
	Branching   *domain.BranchingState `json:"branching,omitempty"`
	Autosave    *AutosaveInfo          `json:"autosave,omitempty"`
	Meta        map[string]string      `json:"meta,omitempty"`
}

// AutosaveInfo records autosave bookkeeping alongside the save.
type AutosaveInfo struct {
	LastTrigger domain.AutosaveTrigger `json:"lastTrigger,omitempty"`
	SavedAt     time.Time              `json:"savedAt,omitempty"`
	Count       int                    `json:"count,omitempty"`
}

// State reconstructs a domain.State from the payload core fields.
func (p *Payload) State() *domain.State {
	return &domain.State{
		CurrentNodeID: p.CurrentNodeID,
		Flags:         domain.CloneFlags(p.Flags),
		History:       append([]string(nil), p.History...),
	}
}

// NewPayload builds a payload from a state snapshot. The state is deep-copied
// so the payload shares nothing with the live engine.
func NewPayload(state *domain.State) Payload {
	snap := state.Clone()
	return Payload{
		CurrentNodeID: snap.CurrentNodeID,
		Flags:         snap.Flags,
		History:       snap.History,
	}
}
