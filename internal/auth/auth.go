// Package auth verifies bearer tokens and carries the caller's identity
// through the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/JaimeStill/accord/pkg/handlers"
)

// ErrUnauthorized marks a missing, malformed, or rejected bearer token.
var ErrUnauthorized = errors.New("unauthorized")

const (
	// AnonymousUser is the identity assigned when authentication is disabled.
	AnonymousUser = "anonymous"

	// RoleAuditor may read outcomes archived for other users.
	RoleAuditor = "auditor"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// Validator turns a raw bearer token into an Identity.
type Validator interface {
	Validate(ctx context.Context, token string) (Identity, error)
}

// OIDC verifies ID tokens issued by an OpenID Connect provider.
type OIDC struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
}

// NewOIDC wraps an existing verifier.
func NewOIDC(verifier *oidc.IDTokenVerifier, rolesClaim string) *OIDC {
	return &OIDC{verifier: verifier, rolesClaim: rolesClaim}
}

// Connect builds an OIDC validator from config. When JWKSURL is set, keys are
// fetched from it directly; otherwise the issuer's discovery document is used.
func Connect(ctx context.Context, cfg *Config) (*OIDC, error) {
	oc := &oidc.Config{ClientID: cfg.Audience}

	if cfg.JWKSURL != "" {
		keys := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)
		return NewOIDC(oidc.NewVerifier(cfg.IssuerURL, keys, oc), cfg.RolesClaim), nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discover issuer %s: %w", cfg.IssuerURL, err)
	}
	return NewOIDC(provider.Verifier(oc), cfg.RolesClaim), nil
}

// Validate verifies token and maps its subject and roles claim.
func (o *OIDC) Validate(ctx context.Context, token string) (Identity, error) {
	idt, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var claims map[string]any
	if err := idt.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	return IdentityFromClaims(idt.Subject, claims, o.rolesClaim)
}

// IdentityFromClaims builds an Identity from a verified token's subject and
// claims. rolesClaim may be a dotted path such as "realm_access.roles"; the
// value may be a string or a list of strings.
func IdentityFromClaims(subject string, claims map[string]any, rolesClaim string) (Identity, error) {
	if subject == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}

	id := Identity{UserID: subject}

	var v any = claims
	for part := range strings.SplitSeq(rolesClaim, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return id, nil
		}
		v = m[part]
	}

	switch roles := v.(type) {
	case string:
		id.Roles = strings.Fields(roles)
	case []any:
		for _, r := range roles {
			if s, ok := r.(string); ok {
				id.Roles = append(id.Roles, s)
			}
		}
	}
	return id, nil
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity set by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Middleware authenticates each request with v. A nil validator admits every
// request as AnonymousUser.
func Middleware(v Validator, logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With("system", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Identity{UserID: AnonymousUser})))
				return
			}

			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				handlers.RespondError(w, logger, http.StatusUnauthorized, fmt.Errorf("%w: missing bearer token", ErrUnauthorized))
				return
			}

			id, err := v.Validate(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				handlers.RespondError(w, logger, http.StatusUnauthorized, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
