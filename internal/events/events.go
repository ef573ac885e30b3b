// Package events holds the job payloads passed from the write path to the
// confirmation workers.
package events

import (
	"encoding/json"
	"time"
)

// Reason says why a confirmation is being produced.
type Reason string

const (
	ReasonCreated    Reason = "created"
	ReasonUpdated    Reason = "updated"
	ReasonRegenerate Reason = "regenerate"
	// ReasonRecovered marks a job re-queued by the sweeper.
	ReasonRecovered Reason = "recovered"
)

// FirstIssue reports whether the job only exists to produce a document that
// was never made. Such a job is dropped once a document is linked.
func (r Reason) FirstIssue() bool {
	return r == ReasonCreated || r == ReasonRecovered
}

// Confirmation asks a worker to render, store, relink and send the
// confirmation document of one registrant.
type Confirmation struct {
	RegistrantID uint      `json:"registrant_id"`
	Reason       Reason    `json:"reason"`
	Notify       bool      `json:"notify"`
	Attempt      int       `json:"attempt"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

func (c Confirmation) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func UnmarshalConfirmation(b []byte) (Confirmation, error) {
	var c Confirmation
	err := json.Unmarshal(b, &c)
	return c, err
}
