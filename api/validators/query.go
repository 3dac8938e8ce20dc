package validators

import (
	"net/http"
	"strings"
)

// ParseQueryFlag reports whether a boolean query parameter is set. "1" and
// "true" count; anything else does not.
func ParseQueryFlag(r *http.Request, key string) bool {
	raw := strings.TrimSpace(strings.ToLower(r.URL.Query().Get(key)))
	return raw == "1" || raw == "true"
}
