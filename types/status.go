package types

// Status is the terminal outcome of a case, suite or session.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// StatusFromBool maps a pass flag to a Status.
func StatusFromBool(passed bool) Status {
	if passed {
		return StatusPass
	}
	return StatusFail
}
