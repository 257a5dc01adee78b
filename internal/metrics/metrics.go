package metrics

import "time"

type StepMetrics struct {
	Agent      string    `json:"agent"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Err        string    `json:"err,omitempty"`
}

type TurnMetrics struct {
	TurnID     string        `json:"turn_id"`
	SessionKey string        `json:"session_key"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	DurationMs int64         `json:"duration_ms"`
	Succeeded  bool          `json:"succeeded"`
	Steps      []StepMetrics `json:"steps"`
}

// Compute derived fields for a step.
func (s *StepMetrics) Finalize() {
	s.DurationMs = s.End.Sub(s.Start).Milliseconds()
}

func (t *TurnMetrics) Finalize() {
	t.End = time.Now()
	t.DurationMs = t.End.Sub(t.Start).Milliseconds()
}
