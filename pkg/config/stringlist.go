package config

import "strings"

// StringList is a comma-separated environment value parsed into a
// normalized, whitespace-trimmed slice with empty elements dropped.
type StringList []string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *StringList) UnmarshalText(text []byte) error {
	raw := strings.Split(string(text), ",")
	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	*l = out
	return nil
}

// Contains reports whether s is present verbatim in the list.
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}
