package authapi

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"userauth/cmd/identity"
	"userauth/cmd/internal/auth/session"
	sectoken "userauth/cmd/security/token"
)

// Handler wires HTTP auth endpoints to the identity store and session service.
type Handler struct {
	log *slog.Logger
	cfg Config

	// pool backs audit writes and login throttling; nil disables both.
	pool *pgxpool.Pool

	store    identity.Store
	sessions *session.Service

	dummyHash string
}

// NewHandler constructs an auth Handler.
//
// The pool is optional: without it the handler still authenticates, but
// audit records and login throttling are disabled.
func NewHandler(log *slog.Logger, cfg Config, store identity.Store, sessions *session.Service, pool *pgxpool.Pool) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("auth: nil identity store")
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session service")
	}

	h := &Handler{
		log:      log,
		cfg:      cfg,
		pool:     pool,
		store:    store,
		sessions: sessions,
	}

	// Dummy hash for timing-resistant login checks.
	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		h.dummyHash = hash
	}

	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/register", h.handleRegister)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
}

// SessionService returns the underlying session service.
func (h *Handler) SessionService() *session.Service {
	if h == nil {
		return nil
	}
	return h.sessions
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	u, err := h.store.CreateUser(ctx, identity.CreateUserInput{
		Email:    email,
		Name:     req.Name,
		Password: password,
		Now:      now,
	})
	if err != nil {
		switch {
		case identity.IsConflict(err):
			metricRegistrations.WithLabelValues("conflict").Inc()
			writeError(w, http.StatusConflict, "conflict", "email already registered")
		case identity.IsInvalidInput(err):
			metricRegistrations.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid input")
		default:
			metricRegistrations.WithLabelValues("error").Inc()
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	// Registration establishes a session right away, same issuance step as login.
	token, err := h.sessions.Issue(ctx, now, &u)
	if err != nil {
		metricRegistrations.WithLabelValues("error").Inc()
		h.log.Error("auth.register.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	metricRegistrations.WithLabelValues("ok").Inc()
	h.auditRegister(ctx, u.ID, ip, ua, u.EmailNorm)

	writeJSON(w, http.StatusCreated, registerResponse{
		User: toUserResponse(u),
		Session: sessionResponse{
			Token:     token,
			IssuedAt:  now,
			ExpiresAt: now.Add(h.sessions.SessionTTL()),
		},
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	if email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())
	identifier := identity.NormalizeEmail(email)

	// IP-based throttling before any DB lookup.
	if blocked, retryAfter, err := h.checkLoginIPThrottle(ctx, ip, now); err != nil {
		h.log.Error("auth.login.throttle_ip.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
		return
	} else if blocked {
		metricLogins.WithLabelValues("rate_limited").Inc()
		h.auditLoginRateLimited(ctx, ip, ua, identifier, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}
	// Identifier-based throttling with progressive lockout.
	if blocked, retryAfter, err := h.checkLoginIdentifierThrottle(ctx, identifier, now); err != nil {
		h.log.Error("auth.login.throttle_identifier.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "server_busy", "please retry later")
		return
	} else if blocked {
		metricLogins.WithLabelValues("rate_limited").Inc()
		h.auditLoginRateLimited(ctx, ip, ua, identifier, retryAfter)
		writeRateLimited(w, retryAfter)
		return
	}

	u, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		// Timing resistance: perform a dummy verify when the user is missing.
		if h.dummyHash != "" {
			_, _ = identity.VerifyPassword(password, h.dummyHash)
		}
		metricLogins.WithLabelValues("not_found").Inc()
		h.auditLoginFailed(ctx, nil, ip, ua, identifier, "not_found")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	okPw, err := identity.VerifyPassword(password, u.PasswordHash)
	if err != nil || !okPw {
		metricLogins.WithLabelValues("bad_password").Inc()
		h.auditLoginFailed(ctx, &u.ID, ip, ua, identifier, "bad_password")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
		return
	}

	token, err := h.sessions.Issue(ctx, now, &u)
	if err != nil {
		metricLogins.WithLabelValues("error").Inc()
		h.log.Error("auth.login.issue.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	metricLogins.WithLabelValues("ok").Inc()
	h.auditLoginSuccess(ctx, u.ID, ip, ua, identifier, sectoken.Fingerprint(token))

	writeJSON(w, http.StatusOK, loginResponse{
		User: toUserResponse(u),
		Session: sessionResponse{
			Token:     token,
			IssuedAt:  now,
			ExpiresAt: now.Add(h.sessions.SessionTTL()),
		},
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.sessions.End(ctx, &u); err != nil {
		metricLogouts.WithLabelValues("error").Inc()
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	metricLogouts.WithLabelValues("ok").Inc()
	h.auditLogout(ctx, u.ID, clientIP(r, h.cfg.TrustProxy), strings.TrimSpace(r.UserAgent()))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	u, ok := h.requireAuth(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}

// ---- helpers ----

// requireAuth validates the bearer token and returns the authenticated user.
// Error codes are deliberately specific; the session service has already
// cleaned up expired state before reporting expiry.
func (h *Handler) requireAuth(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	token := bearerToken(r)
	if token == "" {
		metricValidations.WithLabelValues("missing").Inc()
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return identity.User{}, false
	}

	u, err := h.sessions.Validate(r.Context(), token, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrLoginExpired):
			metricValidations.WithLabelValues("expired").Inc()
			writeError(w, http.StatusUnauthorized, "login_expired", "login expired")
		case errors.Is(err, session.ErrTokenMismatch):
			metricValidations.WithLabelValues("mismatch").Inc()
			writeError(w, http.StatusUnauthorized, "token_mismatch", "token is not the live session")
		case errors.Is(err, session.ErrUnknownUser):
			metricValidations.WithLabelValues("unknown_user").Inc()
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
		case errors.Is(err, session.ErrInvalidToken):
			metricValidations.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		default:
			metricValidations.WithLabelValues("error").Inc()
			h.log.Error("auth.validate.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return identity.User{}, false
	}

	metricValidations.WithLabelValues("ok").Inc()
	return u, true
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
