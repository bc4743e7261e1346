package tools

import (
	"encoding/json"
	"time"
)

// String returns the string value for key, or empty.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Int returns the integer value for key. JSON numbers decode as float64.
func (a Args) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// IntOr returns the integer value for key or the default.
func (a Args) IntOr(key string, def int) int {
	if v, ok := a.Int(key); ok {
		return v
	}
	return def
}

// Bool returns the boolean value for key, defaulting to false.
func (a Args) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Time parses an RFC3339 timestamp argument. Missing or empty returns nil.
func (a Args) Time(key string) (*time.Time, error) {
	s := a.String(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	u := t.UTC()
	return &u, nil
}

// Decode re-marshals the value under key into dst, for structured
// arguments like task or event lists.
func (a Args) Decode(key string, dst any) error {
	v, ok := a[key]
	if !ok {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// jsonContent renders a handler payload as the tool message content.
func jsonContent(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"error":"unrenderable result"}`
	}
	return string(raw)
}
