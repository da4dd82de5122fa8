// Package keys builds canonical composite keys for multi-column grouping,
// joining and pivoting. Values are rendered to a canonical string form and
// joined with a reserved separator; logical null is rendered as a reserved
// token so that a null key never matches a real value that merely looks like
// "null".
package keys

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Sep separates the per-column parts of a composite key. The ASCII unit
	// separator cannot appear in canonical numeric or boolean forms.
	Sep = "\x1f"

	// Null is the canonical form of a logical null. The leading NUL byte keeps
	// null sorted before every non-null canonical form in a plain string sort,
	// which is what gives pivot its null-first distinct-value ordering.
	Null = "\x00∅"
)

// Canonical converts a single value to its canonical string form. Null (nil)
// maps to the reserved Null token.
func Canonical(value interface{}) string {
	if value == nil {
		return Null
	}

	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Composite builds a composite key from row values. A single value yields its
// canonical form without a separator, so single-column keys stay cheap.
func Composite(values []interface{}) string {
	if len(values) == 1 {
		return Canonical(values[0])
	}

	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteString(Sep)
		}
		sb.WriteString(Canonical(v))
	}
	return sb.String()
}

// Join joins already-canonical parts into a composite key.
func Join(parts []string) string {
	return strings.Join(parts, Sep)
}

// Split splits a composite key back into its canonical parts.
func Split(key string, n int) []string {
	if n == 1 {
		return []string{key}
	}
	return strings.SplitN(key, Sep, n)
}

// IsNull reports whether a canonical part is the reserved null token.
func IsNull(part string) bool {
	return part == Null
}
