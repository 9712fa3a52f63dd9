package common

import "strings"

// ContainsInsensitive reports whether substr is within s, ignoring case.
func ContainsInsensitive(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
