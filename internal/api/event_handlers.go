package api

import (
	"net/http"

	"github.com/listenupapp/pagebound-server/internal/sse"
)

// registerEventRoutes mounts the SSE stream directly on the router; it is a
// long-lived stream rather than a huma operation.
func (s *Server) registerEventRoutes() {
	if s.sse == nil {
		return
	}
	handler := sse.NewHandler(s.sse, s.resolveStreamReader, s.logger)
	s.router.Get("/api/v1/events", handler.ServeHTTP)
}

// resolveStreamReader identifies the reader of an SSE request. Browsers'
// EventSource cannot set headers, so a ?token= query parameter is accepted
// in place of the Authorization header.
func (s *Server) resolveStreamReader(r *http.Request) (string, bool) {
	if id, ok := ReaderID(r.Context()); ok {
		return id, true
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		return "", false
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", false
	}
	return claims.ReaderID, true
}
