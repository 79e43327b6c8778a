package domain

import "time"

// AutosaveTrigger identifies what caused a checkpoint to be captured.
type AutosaveTrigger string

const (
	TriggerChoice     AutosaveTrigger = "choice"
	TriggerFlagChange AutosaveTrigger = "flag_change"
	TriggerManual     AutosaveTrigger = "manual"
	TriggerInterval   AutosaveTrigger = "interval"
)

// Checkpoint is a labeled snapshot of the full playthrough state.
// Checkpoints are retained in a bounded ring: when the buffer is full,
// the oldest entry is dropped for each new one.
type Checkpoint struct {
	ID         string          `json:"id"`
	Label      string          `json:"label,omitempty"`
	Trigger    AutosaveTrigger `json:"trigger"`
	CapturedAt time.Time       `json:"capturedAt"`
	State      *State          `json:"state"`
	Branching  *BranchingState `json:"branching,omitempty"`
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	if c == nil {
		return nil
	}
	return &Checkpoint{
		ID:         c.ID,
		Label:      c.Label,
		Trigger:    c.Trigger,
		CapturedAt: c.CapturedAt,
		State:      c.State.Clone(),
		Branching:  c.Branching.Clone(),
	}
}
