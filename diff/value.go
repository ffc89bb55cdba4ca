package diff

import (
	"fmt"
	"reflect"
)

// Equal compares two attribute values strictly: both the dynamic type and
// the value must match. "0" and 0 differ, as do nil and "".
func Equal(v1, v2 any) bool {
	if v1 == nil || v2 == nil {
		return v1 == nil && v2 == nil
	}

	t1, t2 := reflect.TypeOf(v1), reflect.TypeOf(v2)
	if t1 != t2 {
		return false
	}
	if t1.Comparable() {
		return v1 == v2
	}
	return reflect.DeepEqual(v1, v2)
}

// FormatValue renders an attribute value for output. nil, which also
// stands for an attribute missing on one side, renders as the empty string.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}

	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return fmt.Sprintf("%v", v)
}
