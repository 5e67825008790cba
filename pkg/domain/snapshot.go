package domain

import "time"

// Snapshot is a serializable picture of a session, as persisted by snapshot stores.
type Snapshot struct {
	SessionID   string             `json:"session_id"`
	Config      string             `json:"config"`
	Task        *Task              `json:"task,omitempty"`
	Project     *Project           `json:"project,omitempty"`
	Description string             `json:"description,omitempty"`
	Interfaces  []string           `json:"interfaces"`
	Flags       Flags              `json:"flags"`
	Selected    string             `json:"selected,omitempty"`
	Annotations []AnnotationRecord `json:"annotations,omitempty"`
	SavedAt     time.Time          `json:"saved_at"`

	// Sealed carries an encrypted snapshot. Envelopes written by the encryption middleware
	// hold nothing else but the session ID and save time.
	Sealed string `json:"sealed,omitempty"`
}
