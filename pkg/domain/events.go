package domain

import (
	"context"
	"time"
)

// GuardOutcome describes how a duplicate-guard engagement ended.
type GuardOutcome string

const (
	GuardSettled  GuardOutcome = "settled"
	GuardRejected GuardOutcome = "rejected"
	GuardTimeout  GuardOutcome = "timeout"
	// GuardLateRejected is reported when the action rejects after the ceiling already released the guard.
	GuardLateRejected GuardOutcome = "late_rejected"
)

// CommandEvent is emitted every time the router resolves a key or command name.
type CommandEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Command   string    `json:"command"`
	Keys      string    `json:"keys,omitempty"`
	Handled   bool      `json:"handled"`
}

// GuardEvent is emitted when the duplicate-guard engages and when it releases.
type GuardEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	SessionID string        `json:"session_id,omitempty"`
	Action    string        `json:"action"`
	Outcome   GuardOutcome  `json:"outcome,omitempty"`
	Held      time.Duration `json:"held,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for controller observability.
type LifecycleHooks struct {
	OnCommand      func(context.Context, *CommandEvent)
	OnGuardEngage  func(context.Context, *GuardEvent)
	OnGuardRelease func(context.Context, *GuardEvent)
}
