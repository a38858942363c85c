package llm

import (
	"time"

	"github.com/google/uuid"
)

// Record is the per-attempt call metadata kept for reporting. One Record is
// emitted per attempt, retries included; never mutated after creation.
type Record struct {
	ID         string    `json:"id"`
	Index      int       `json:"index"`
	Attempt    int       `json:"attempt"`
	Model      string    `json:"model,omitempty"`
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    string    `json:"outcome"` // "success" or "failure"
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
}

func newRecord(index, attempt int, model, prompt string, started time.Time) *Record {
	return &Record{
		ID:        uuid.New().String(),
		Index:     index,
		Attempt:   attempt,
		Model:     model,
		Prompt:    prompt,
		StartedAt: started,
	}
}
