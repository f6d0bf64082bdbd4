package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dejobratic/shopkart/internal/apperrors"
	"github.com/dejobratic/shopkart/internal/httpx"
)

type contextKey struct{}

var (
	ErrLoginRequired = apperrors.New(apperrors.ErrUnauthorized, "login required")
	ErrStaffOnly     = apperrors.New(apperrors.ErrForbidden, "staff access required")
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached by one of the middlewares.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Optional attaches an identity when a valid bearer token is present and never rejects.
func (i *Issuer) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if id, err := i.Verify(token); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without a valid bearer token.
func (i *Issuer) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.WriteAppError(w, r, ErrLoginRequired)
			return
		}
		id, err := i.Verify(token)
		if err != nil {
			httpx.WriteAppError(w, r, ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// StaffOnly must run after Required.
func StaffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			httpx.WriteAppError(w, r, ErrLoginRequired)
			return
		}
		if !id.IsStaff {
			httpx.WriteAppError(w, r, ErrStaffOnly)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitKey buckets authenticated callers by user id and anonymous ones by remote address.
func RateLimitKey(r *http.Request) string {
	if id, ok := FromContext(r.Context()); ok {
		return "user:" + id.UserID
	}
	return "ip:" + r.RemoteAddr
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
