package types

import "time"

// ConfigSnapshot is the effective configuration of one run, grouped by
// concern. It lands in the run's report so a result can be traced back to
// the selection and mode that produced it.
type ConfigSnapshot struct {
	Version     string `json:"version"`
	SessionName string `json:"sessionName,omitempty"`

	Selection SelectionSnapshot `json:"selection"`
	Execution ExecutionSnapshot `json:"execution"`
	Reports   ReportsSnapshot   `json:"reports"`
}

// SelectionSnapshot records which units the run was asked to execute.
type SelectionSnapshot struct {
	Filter string `json:"filter,omitempty"`
	Suite  string `json:"suite,omitempty"`
	Plan   string `json:"plan,omitempty"`
}

// ExecutionSnapshot records how the run was driven.
type ExecutionSnapshot struct {
	RunInterval time.Duration `json:"runInterval"`
	RunOnce     bool          `json:"runOnce"`
	Verbose     bool          `json:"verbose"`
}

// ReportsSnapshot records where report artifacts were written.
type ReportsSnapshot struct {
	ReportDir string `json:"reportDir,omitempty"`
}

// Empty reports whether the snapshot carries nothing worth rendering.
func (s SelectionSnapshot) Empty() bool {
	return s.Filter == "" && s.Suite == "" && s.Plan == ""
}
