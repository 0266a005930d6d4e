package runner

import (
	"fmt"
	"strconv"
)

// Formatter renders a captured value for check expressions and reports.
type Formatter func(v any) string

// FormatValue is the default Formatter. Strings are quoted so whitespace
// and empty values stay visible; everything else prints in %v form.
func FormatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return strconv.Quote(tv)
	case error:
		return strconv.Quote(tv.Error())
	case fmt.Stringer:
		return tv.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
