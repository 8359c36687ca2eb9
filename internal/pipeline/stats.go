package pipeline

import "time"

// RunState tracks a batch from start to persistence.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCollected RunState = "collected"
	RunPersisted RunState = "persisted"
	RunFailed    RunState = "failed"
)

type RunStats struct {
	RunID        string    `json:"run_id"`
	State        RunState  `json:"state"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Areas        int       `json:"areas"`
	Completed    int       `json:"completed"`
	Failed       []string  `json:"failed,omitempty"`
	AIDays       int       `json:"ai_days"`
	FallbackDays int       `json:"fallback_days"`
}

// AllFailed reports whether no area produced a result.
func (s RunStats) AllFailed() bool {
	return s.Completed == 0
}
