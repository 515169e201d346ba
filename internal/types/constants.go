package types

import (
	"strings"
)

const (
	ContextUserKey  = "user"
	ContextTraceKey = "trace_id"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// BuildAllowedOrigins merges the development defaults with the client URL and
// the comma separated ALLOWED_ORIGINS list.
func BuildAllowedOrigins(clientURL, allowedOrigins string) []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}

func OriginAllowed(origins []string, origin string) bool {
	for _, allowed := range origins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}
