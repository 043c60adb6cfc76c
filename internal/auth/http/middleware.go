package http

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/viewvault/internal/audit/domain"
	authService "github.com/allisson/viewvault/internal/auth/service"
	apperrors "github.com/allisson/viewvault/internal/errors"
	"github.com/allisson/viewvault/internal/httputil"
)

const (
	// KeyHeader carries the internal API key.
	KeyHeader = "X-Internal-Api-Key"

	// ActorHeader names the operator or service on whose behalf a privileged call is made.
	ActorHeader = "X-Actor"

	// DefaultActor is recorded when a verified caller sends no ActorHeader.
	DefaultActor = "internal"

	anonymousActor = "anonymous"
	maxActorLength = 128
)

// Auditor appends to the audit log.
type Auditor interface {
	Append(ctx context.Context, entry auditDomain.Entry) error
}

// InternalKeyMiddleware requires the internal API key, sent in the X-Internal-Api-Key
// header or as a Bearer token ("Authorization: Bearer <key>"). The caller
// names itself in the X-Actor header; the value is stored with WithActor and ends up
// in every audit record the request writes.
//
// Every rejected request is appended to the audit log as AUTH_FAILED before the
// 401 response is written. A failing audit append is logged and does not change
// the response.
func InternalKeyMiddleware(verifier authService.KeyVerifier, auditor Auditor, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := clampActor(c.GetHeader(ActorHeader))

		key, ok := presentedKey(c)
		if !ok || !verifier.Verify(key) {
			logger.Debug("authentication failed", slog.String("path", c.FullPath()))
			rejectUnauthorized(c, auditor, actor, logger)
			return
		}

		if actor == "" {
			actor = DefaultActor
		}
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// clampActor drops invalid UTF-8 and cuts the value to maxActorLength bytes on a
// rune boundary.
func clampActor(raw string) string {
	actor := strings.ToValidUTF8(strings.TrimSpace(raw), "")
	if len(actor) <= maxActorLength {
		return actor
	}
	cut := maxActorLength
	for cut > 0 && !utf8.RuneStart(actor[cut]) {
		cut--
	}
	return actor[:cut]
}

// presentedKey returns the key from KeyHeader, falling back to the Authorization header.
func presentedKey(c *gin.Context) (string, bool) {
	if key := strings.TrimSpace(c.GetHeader(KeyHeader)); key != "" {
		return key, true
	}
	return bearerToken(c.GetHeader("Authorization"))
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const bearerPrefix = "bearer "
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

func rejectUnauthorized(c *gin.Context, auditor Auditor, actor string, logger *slog.Logger) {
	if actor == "" {
		actor = anonymousActor
	}

	target := c.FullPath()
	if target == "" {
		target = c.Request.URL.Path
	}

	err := auditor.Append(c.Request.Context(), auditDomain.Entry{
		Actor:       actor,
		Action:      auditDomain.ActionAuthFailed,
		TargetID:    target,
		Outcome:     auditDomain.OutcomeFailure,
		FailureKind: string(apperrors.KindAuthFailed),
		Metadata:    map[string]any{"method": c.Request.Method},
	})
	if err != nil {
		logger.Error("failed to audit rejected request", slog.Any("error", err))
	}

	httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
	c.Abort()
}
