package types

import "time"

// SuiteInfo identifies a suite before it runs.
type SuiteInfo struct {
	Name      string    `json:"name"`
	File      string    `json:"file,omitempty"`
	Line      int       `json:"line,omitempty"`
	Default   bool      `json:"default,omitempty"` // the implicit suite holding standalone cases
	StartTime time.Time `json:"startTime"`
}

// SuiteResult is the immutable record of a finished suite.
type SuiteResult struct {
	SuiteInfo
	Status   Status        `json:"status"`
	EndTime  time.Time     `json:"endTime"`
	Duration time.Duration `json:"duration"`
	Stats    Stats         `json:"stats"`
	Passes   int           `json:"passes"`          // setup/teardown replays executed during discovery
	Err      string        `json:"error,omitempty"` // failure raised outside any case body
	Cases    []CaseResult  `json:"cases"`
}

// Passed reports whether the suite finished with no failed case and no
// failure outside a case body.
func (r SuiteResult) Passed() bool { return r.Status == StatusPass }
