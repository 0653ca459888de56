// Package adminapi is a read-only HTTP/WS inspection surface over a
// replica: list and look up cells/posts/identities, and stream
// pending/warning events over a websocket. Grounded on the teacher's
// internal/tosapi (typed JSON API handlers over node state —
// internal/tosapi/api_v2.go) and engineapi/client's JWT-bearer gate
// (engineapi/client/client.go), reused here on the server side. Uses
// github.com/julienschmidt/httprouter and github.com/rs/cors, both
// direct teacher go.mod dependencies (see DESIGN.md, C11).
package adminapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/opchan/core/identity"
	"github.com/opchan/core/replica"
)

// Config controls the server's auth and CORS posture.
type Config struct {
	// JWTSecret gates every request with a bearer token when non-empty,
	// mirroring transport/relay's client-side JWT pattern in reverse
	// (server verifies instead of signs).
	JWTSecret []byte

	// AllowedOrigins is passed to rs/cors; nil means no CORS headers are
	// added at all (same-origin callers only).
	AllowedOrigins []string

	Logger *zap.Logger
}

// Server exposes a replica's state read-only, never mutating it.
type Server struct {
	cfg     Config
	logger  *zap.Logger
	replica *replica.Replica
	ident   *identity.Resolver
	handler http.Handler
}

// New builds a Server over rep (and, optionally, ident for display-name
// enrichment).
func New(cfg Config, rep *replica.Replica, ident *identity.Resolver) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, logger: logger, replica: rep, ident: ident}

	router := httprouter.New()
	router.GET("/v1/cells", s.listCells)
	router.GET("/v1/cells/:id", s.getCell)
	router.GET("/v1/posts", s.listPosts)
	router.GET("/v1/posts/:id", s.getPost)
	router.GET("/v1/identities/:address", s.getIdentity)
	router.GET("/v1/stream", s.stream)

	var handler http.Handler = s.authGate(router)
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{AllowedOrigins: cfg.AllowedOrigins}).Handler(handler)
	}
	s.handler = handler
	return s
}

// ServeHTTP implements http.Handler, so a Server can be plugged into any
// http.Server/mux directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// authGate verifies the bearer JWT on every request when cfg.JWTSecret
// is set, the mirror image of transport/relay.Client.authHeader.
func (s *Server) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.cfg.JWTSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		// /v1/stream is a websocket upgrade, but the handshake request
		// still carries the header, so the gate applies before the
		// upgrade happens too.
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		tokenStr := strings.TrimPrefix(auth, prefix)
		_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return s.cfg.JWTSecret, nil
		})
		if err != nil {
			http.Error(w, "invalid bearer token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
