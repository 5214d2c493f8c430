package webhook

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/slashgw/internal/auth"
	"github.com/mattjoyce/slashgw/internal/storage"
)

// Scopes accepted on /admin routes.
const (
	ScopeCommandsRead     = "commands:ro"
	ScopeInteractionsRead = "interactions:ro"
)

func (s *Server) adminRoutes(r chi.Router) {
	r.Use(s.authMiddleware)
	r.With(s.requireScopes(ScopeCommandsRead)).Get("/commands", s.handleListCommands)
	if s.recorder != nil {
		r.With(s.requireScopes(ScopeInteractionsRead)).Get("/interactions", s.handleListInteractions)
	}
}

// authMiddleware resolves the bearer token into a principal.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.ExtractBearerToken(r)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, err.Error())
			return
		}

		principal, ok := auth.Authenticate(token, s.config.Admin.Token, s.config.Admin.Tokens)
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (s *Server) requireScopes(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok || !auth.HasAnyScope(principal, scopes...) {
				s.respondError(w, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, CommandsResponse{Commands: s.dispatcher.Definitions()})
}

func (s *Server) handleListInteractions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultInteractionsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxInteractionsLimit)
	}

	records, err := s.recorder.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list interactions", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list interactions")
		return
	}
	if records == nil {
		records = []storage.Record{}
	}
	s.respondJSON(w, http.StatusOK, InteractionsResponse{Interactions: records})
}
