package types

import "time"

// SessionInfo identifies a run before any suite executes.
type SessionInfo struct {
	Name        string    `json:"name"`
	RunID       string    `json:"runId"`
	StartTime   time.Time `json:"startTime"`
	SuitesTotal int       `json:"suitesTotal"` // includes the default suite when standalone cases exist
}

// SessionResult is the immutable record of a finished run.
//
// Duration is computed from the monotonic clock reading carried by
// StartTime; EndTime is wall clock.
type SessionResult struct {
	SessionInfo
	Status       Status        `json:"status"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
	Stats        Stats         `json:"stats"`
	SuitesFailed int           `json:"suitesFailed"`
	Fatal        string        `json:"fatal,omitempty"` // detail of a run-aborting sanity failure
	Suites       []SuiteResult `json:"suites"`
}

// Passed reports whether the run finished with no failed suite and no fatal
// abort. A run over zero registered cases passes.
func (r SessionResult) Passed() bool { return r.Status == StatusPass }

// TestCasesExecuted returns the number of cases that ran.
func (r SessionResult) TestCasesExecuted() int { return r.Stats.Total }
