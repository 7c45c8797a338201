// Package models contains domain models for pomotrack.
package models

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Type identifies the kind of timer run a session represents.
type Type string

const (
	TypeWork       Type = "work"
	TypeShortBreak Type = "short_break"
	TypeLongBreak  Type = "long_break"
)

// ValidType reports whether t is one of the three session types.
// Matching is exact and case-sensitive.
func ValidType(t Type) bool {
	switch t {
	case TypeWork, TypeShortBreak, TypeLongBreak:
		return true
	}
	return false
}

// DefaultDuration returns the default duration in minutes for a session
// type. Unknown types get the work default.
func DefaultDuration(t Type) int {
	switch t {
	case TypeShortBreak:
		return 5
	case TypeLongBreak:
		return 15
	default:
		return 25
	}
}

// Session is one timer run. Construction is lenient: New never rejects
// its arguments, and Validate is the separate check callers run before
// persisting. This lets transiently-invalid sessions exist while a form
// is being filled in.
type Session struct {
	ID              string
	Type            Type
	DurationMinutes int
	TaskDescription string
	StartTime       time.Time
	EndTime         *time.Time
	Completed       bool
	Interruptions   int
}

// New creates a pending session starting now (UTC).
func New(t Type, durationMinutes int, taskDescription string) *Session {
	return &Session{
		ID:              uuid.NewString(),
		Type:            t,
		DurationMinutes: durationMinutes,
		TaskDescription: taskDescription,
		StartTime:       time.Now().UTC(),
	}
}

// Validate reports whether the session holds persistable values.
func (s *Session) Validate() bool {
	return ValidType(s.Type) && s.DurationMinutes > 0 && s.Interruptions >= 0
}

// Complete marks the session completed and stamps EndTime with the
// current UTC time. Calling it again overwrites EndTime with the later
// timestamp; last write wins.
func (s *Session) Complete() {
	now := time.Now().UTC()
	s.Completed = true
	s.EndTime = &now
}

// AddInterruption records one interruption. There is no upper bound.
func (s *Session) AddInterruption() {
	s.Interruptions++
}

// ExpectedEnd returns the scheduled end based on the configured
// duration. It does not consult EndTime.
func (s *Session) ExpectedEnd() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// record is the flat wire shape persisted to the session log, one
// object per line. Timestamps travel as RFC 3339 strings so a corrupt
// value surfaces as a decode error instead of a silent zero time.
type record struct {
	SessionID       string  `json:"session_id"`
	SessionType     string  `json:"session_type"`
	DurationMinutes int     `json:"duration_minutes"`
	TaskDescription string  `json:"task_description"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Completed       bool    `json:"completed"`
	Interruptions   int     `json:"interruptions"`
}

// MarshalJSON encodes the session in its wire shape.
func (s *Session) MarshalJSON() ([]byte, error) {
	rec := record{
		SessionID:       s.ID,
		SessionType:     string(s.Type),
		DurationMinutes: s.DurationMinutes,
		TaskDescription: s.TaskDescription,
		StartTime:       s.StartTime.Format(time.RFC3339Nano),
		Completed:       s.Completed,
		Interruptions:   s.Interruptions,
	}
	if s.EndTime != nil {
		end := s.EndTime.Format(time.RFC3339Nano)
		rec.EndTime = &end
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes the wire shape. task_description, completed and
// interruptions default to their zero values when absent; session_id,
// session_type, duration_minutes and start_time are required, and a
// malformed timestamp is always an error because a session without a
// valid start time is unusable downstream.
func (s *Session) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.SessionID == "" {
		return fmt.Errorf("session record: missing session_id")
	}
	if rec.SessionType == "" {
		return fmt.Errorf("session record: missing session_type")
	}
	if rec.DurationMinutes == 0 {
		return fmt.Errorf("session record: missing duration_minutes")
	}
	if rec.StartTime == "" {
		return fmt.Errorf("session record: missing start_time")
	}

	start, err := time.Parse(time.RFC3339Nano, rec.StartTime)
	if err != nil {
		return fmt.Errorf("session record: bad start_time: %w", err)
	}

	s.ID = rec.SessionID
	s.Type = Type(rec.SessionType)
	s.DurationMinutes = rec.DurationMinutes
	s.TaskDescription = rec.TaskDescription
	s.StartTime = start
	s.EndTime = nil
	if rec.EndTime != nil {
		end, err := time.Parse(time.RFC3339Nano, *rec.EndTime)
		if err != nil {
			return fmt.Errorf("session record: bad end_time: %w", err)
		}
		s.EndTime = &end
	}
	s.Completed = rec.Completed
	s.Interruptions = rec.Interruptions
	return nil
}
