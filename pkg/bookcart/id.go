package bookcart

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an opaque identifier as returned by the storefront. It keeps the
// exact JSON token (number or string) so it can be sent back unchanged.
type ID struct {
	raw json.RawMessage
}

// IntID builds a numeric ID.
func IntID(n int64) ID {
	return ID{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// StringID builds a string ID.
func StringID(s string) ID {
	b, _ := json.Marshal(s)
	return ID{raw: b}
}

// IsZero reports whether the ID is absent or JSON null.
func (id ID) IsZero() bool {
	return len(id.raw) == 0 || bytes.Equal(id.raw, []byte("null"))
}

// String renders the ID for path templates: strings unquoted, numbers as-is.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	if id.isString() {
		var s string
		if err := json.Unmarshal(id.raw, &s); err == nil {
			return s
		}
	}
	return string(id.raw)
}

// Equal reports whether both IDs hold the same JSON value. A string never
// equals a number, so 7 and "7" differ; numbers compare by value (7 == 7.0).
func (id ID) Equal(other ID) bool {
	if id.IsZero() || other.IsZero() {
		return false
	}
	if id.isString() != other.isString() {
		return false
	}
	if !id.isString() {
		a, errA := strconv.ParseFloat(string(id.raw), 64)
		b, errB := strconv.ParseFloat(string(other.raw), 64)
		if errA == nil && errB == nil {
			return a == b
		}
	}
	return id.String() == other.String()
}

func (id ID) isString() bool {
	return len(id.raw) > 0 && id.raw[0] == '"'
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id *ID) UnmarshalJSON(b []byte) error {
	id.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}
