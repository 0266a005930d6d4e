package runner

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/unitlab/unit/types"
)

// compare evaluates one captured value against an operator and operand.
// Failed equality of multiline strings also yields a unified diff; ordering
// a value with no defined order fails the check with a diagnostic instead
// of panicking.
func compare(lhs any, op types.Op, rhs any) (bool, string) {
	switch op {
	case types.OpNone:
		return truthy(lhs), ""
	case types.OpEq:
		if equal(lhs, rhs) {
			return true, ""
		}
		return false, diffFor(lhs, rhs)
	case types.OpNe:
		return !equal(lhs, rhs), ""
	}

	ord, ok := ordered(lhs, rhs)
	if !ok {
		return false, fmt.Sprintf("values of type %T and %T are not ordered", lhs, rhs)
	}
	return applyOrder(op, ord), ""
}

// truthy mirrors boolean conversion: false, zero, empty and nil are all
// false, everything else is true.
func truthy(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}
	return !rv.IsZero()
}

// equal compares numbers mathematically across widths and signedness, so
// Expect(int8(3)).Eq(3.0) holds. Non-numeric values use deep equality.
func equal(lhs, rhs any) bool {
	if ln, lok := numeric(lhs); lok {
		if rn, rok := numeric(rhs); rok {
			return numEqual(ln, rn)
		}
	}
	return reflect.DeepEqual(lhs, rhs)
}

// diffFor renders a want/got diff for failed equality of multiline strings,
// where a single formatted line would bury the difference.
func diffFor(lhs, rhs any) string {
	ls, lok := lhs.(string)
	rs, rok := rhs.(string)
	if !lok || !rok {
		return ""
	}
	if !strings.Contains(ls, "\n") && !strings.Contains(rs, "\n") {
		return ""
	}
	return cmp.Diff(rs, ls)
}

// num holds one number normalized into the widest class of its kind.
type num struct {
	kind rune // 'i', 'u' or 'f'
	i    int64
	u    uint64
	f    float64
}

func numeric(v any) (num, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return num{}, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return num{kind: 'i', i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return num{kind: 'u', u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return num{kind: 'f', f: rv.Float()}, true
	}
	return num{}, false
}

func isNumericKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uintptr) || k == reflect.Float32 || k == reflect.Float64
}

func numEqual(a, b num) bool {
	if a.kind == b.kind {
		switch a.kind {
		case 'i':
			return a.i == b.i
		case 'u':
			return a.u == b.u
		default:
			return a.f == b.f
		}
	}
	return numCmp(a, b) == 0
}

func numLess(a, b num) bool { return numCmp(a, b) < 0 }

// numCmp orders two numbers of possibly different classes. Mixed signed and
// unsigned values compare by mathematical value, not by bit pattern.
func numCmp(a, b num) int {
	if a.kind == 'f' || b.kind == 'f' {
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	if a.kind == 'i' && b.kind == 'i' {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	}
	if a.kind == 'u' && b.kind == 'u' {
		switch {
		case a.u < b.u:
			return -1
		case a.u > b.u:
			return 1
		default:
			return 0
		}
	}
	if a.kind == 'i' {
		if a.i < 0 {
			return -1
		}
		return cmpUint(uint64(a.i), b.u)
	}
	if b.i < 0 {
		return 1
	}
	return cmpUint(a.u, uint64(b.i))
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(n num) float64 {
	switch n.kind {
	case 'i':
		return float64(n.i)
	case 'u':
		return float64(n.u)
	default:
		return n.f
	}
}

// ordered reports whether lhs sorts before, equal to or after rhs. Numbers
// and strings are ordered; everything else has no defined order.
func ordered(lhs, rhs any) (int, bool) {
	if ln, lok := numeric(lhs); lok {
		if rn, rok := numeric(rhs); rok {
			return numCmp(ln, rn), true
		}
		return 0, false
	}
	lv, rv := reflect.ValueOf(lhs), reflect.ValueOf(rhs)
	if lv.IsValid() && rv.IsValid() && lv.Kind() == reflect.String && rv.Kind() == reflect.String {
		return strings.Compare(lv.String(), rv.String()), true
	}
	return 0, false
}

func applyOrder(op types.Op, ord int) bool {
	switch op {
	case types.OpLt:
		return ord < 0
	case types.OpLe:
		return ord <= 0
	case types.OpGt:
		return ord > 0
	case types.OpGe:
		return ord >= 0
	}
	return false
}
