// Package backendfake is an in-process stand-in for the Wakelni REST backend. It
// validates bearer tokens, serves the token refresh endpoint and records every
// request so tests can assert on exactly what the client sent.
package backendfake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const (
	RefreshPath = "/api/users/token/refresh/"

	signingSecret = "backendfake-secret"
)

// RecordedRequest is a request as received by the fake.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// JSONBody decodes the recorded body into out.
func (r RecordedRequest) JSONBody(out interface{}) error {
	return json.Unmarshal(r.Body, out)
}

type Backend struct {
	server *httptest.Server
	router *mux.Router

	mu            sync.Mutex
	validAccess   map[string]bool
	validRefresh  map[string]bool
	rejectAll     bool
	requests      []RecordedRequest
	refreshCalls  int
	issued        int
	accessTTL     time.Duration
	refreshStatus int
	refreshBody   string
	refreshDelay  time.Duration
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		router:       mux.NewRouter(),
		validAccess:  make(map[string]bool),
		validRefresh: make(map[string]bool),
		accessTTL:    5 * time.Minute,
	}
	b.router.Use(b.recordMiddleware)
	b.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	})
	b.router.HandleFunc(RefreshPath, b.refreshHandler).Methods(http.MethodPost)

	b.server = httptest.NewServer(b.router)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

// AllowAccess marks token as a valid bearer credential.
func (b *Backend) AllowAccess(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validAccess[token] = true
}

// ExpireAccess makes token fail authentication from now on.
func (b *Backend) ExpireAccess(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.validAccess, token)
}

// RejectAllAccess makes every bearer credential fail, including freshly issued ones.
func (b *Backend) RejectAllAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectAll = true
}

func (b *Backend) AllowRefresh(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.validRefresh[token] = true
}

// FailRefresh makes the refresh endpoint answer with status and body.
func (b *Backend) FailRefresh(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshStatus = status
	b.refreshBody = body
}

// SlowRefresh delays every refresh response, widening the window for concurrent callers.
func (b *Backend) SlowRefresh(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshDelay = d
}

func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Requests returns recorded requests matching method and path; empty strings match all.
func (b *Backend) Requests(method, path string) []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []RecordedRequest
	for _, r := range b.requests {
		if (method == "" || r.Method == method) && (path == "" || r.Path == path) {
			out = append(out, r)
		}
	}
	return out
}

// LastRequest returns the most recent request to path.
func (b *Backend) LastRequest(method, path string) (RecordedRequest, bool) {
	reqs := b.Requests(method, path)
	if len(reqs) == 0 {
		return RecordedRequest{}, false
	}
	return reqs[len(reqs)-1], true
}

// Handle registers a bearer-protected route. Invalid or absent tokens get the same
// 401 body the real backend sends.
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		h(w, r)
	}).Methods(method)
}

// HandlePublic registers a route without authentication.
func (b *Backend) HandlePublic(method, path string, h http.HandlerFunc) {
	b.router.HandleFunc(path, h).Methods(method)
}

// IssueAccessToken returns a signed JWT access token with the configured lifetime and
// marks it valid.
func (b *Backend) IssueAccessToken(subject string) string {
	b.mu.Lock()
	b.issued++
	n := b.issued
	ttl := b.accessTTL
	b.mu.Unlock()

	token := SignToken(subject, fmt.Sprintf("access-%d", n), time.Now().Add(ttl))
	b.AllowAccess(token)
	return token
}

// Vars exposes gorilla/mux path variables to handlers.
func Vars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// SignToken builds an HS256 JWT with sub, jti and exp claims.
func SignToken(subject, id string, expiresAt time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        id,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

// WriteJSON writes v with status. A nil v writes an empty body.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes a request body inside a handler.
func DecodeJSON(r *http.Request, out interface{}) error {
	return json.NewDecoder(r.Body).Decode(out)
}

// JSON returns a handler that always answers with status and v.
func JSON(status int, v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, v)
	}
}

func (b *Backend) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.rejectAll && b.validAccess[token]
}

func (b *Backend) refreshHandler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.refreshCalls++
	status, body, delay := b.refreshStatus, b.refreshBody, b.refreshDelay
	b.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		WriteJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	b.mu.Lock()
	valid := b.validRefresh[req.Refresh]
	b.mu.Unlock()
	if !valid {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"access": b.IssueAccessToken("user")})
}

func (b *Backend) recordMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) record(r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
}
