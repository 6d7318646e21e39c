package authapi

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"
)

// Audit writes are best-effort: a failed insert is logged and never blocks
// the authentication path. All writes are no-ops when no pool is configured.

func (h *Handler) auditRegister(ctx context.Context, userID string, ip net.IP, ua string, identifier string) {
	h.insertAudit(ctx, "auth.register", &userID, ip, ua, identifier, nil)
}

func (h *Handler) auditLoginFailed(ctx context.Context, userID *string, ip net.IP, ua string, identifier string, reason string) {
	h.insertAudit(ctx, "auth.login.failed", userID, ip, ua, identifier, map[string]any{
		"reason": reason,
	})
}

func (h *Handler) auditLoginSuccess(ctx context.Context, userID string, ip net.IP, ua string, identifier string, tokenFP string) {
	// Only the token fingerprint ever reaches the audit row.
	h.insertAudit(ctx, "auth.login.success", &userID, ip, ua, identifier, map[string]any{
		"token_fp": tokenFP,
	})
}

func (h *Handler) auditLoginRateLimited(ctx context.Context, ip net.IP, ua string, identifier string, retryAfter time.Duration) {
	h.insertAudit(ctx, "auth.login.rate_limited", nil, ip, ua, identifier, map[string]any{
		"retry_after_s": int64(retryAfter.Seconds()),
	})
}

func (h *Handler) auditLogout(ctx context.Context, userID string, ip net.IP, ua string) {
	h.insertAudit(ctx, "auth.logout", &userID, ip, ua, "", nil)
}

func (h *Handler) insertAudit(ctx context.Context, action string, userID *string, ip net.IP, ua string, identifier string, meta map[string]any) {
	if h == nil || h.pool == nil {
		return
	}

	action = strings.TrimSpace(action)
	if action == "" {
		return
	}

	var ipVal any
	if ip != nil {
		ipVal = ip.String()
	}

	var metaVal *string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			s := string(b)
			metaVal = &s
		}
	}

	_, err := h.pool.Exec(ctx, `
		INSERT INTO auth.login_audit (
			user_id, action, created_at, ip, user_agent, identifier, meta
		) VALUES ($1, $2, now(), $3, $4, $5, $6::jsonb)
	`, userID, action, ipVal, trimOrNil(ua), trimOrNil(identifier), metaVal)
	if err != nil {
		h.log.Error("auth.audit.insert.fail", "err", err, "action", action)
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
