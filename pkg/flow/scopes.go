package flow

import "strings"

func parseScopes(raw string) map[string]bool {
	out := map[string]bool{}
	for _, s := range strings.Fields(raw) {
		out[s] = true
	}
	return out
}
