package auth

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	principalKey   = "auth_principal"
	bearerTokenKey = "auth_bearer_token"
)

type schemeKind int

const (
	schemeNone schemeKind = iota
	schemeBearer
	schemeBasic
)

// authScheme is the Authorization header parsed once into a tagged variant,
// so the two verifier paths branch on a type, not on header substrings.
type authScheme struct {
	kind     schemeKind
	token    string
	email    string
	password string
}

func parseAuthorizationHeader(header string) authScheme {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return authScheme{kind: schemeNone}
	}

	switch {
	case strings.EqualFold(parts[0], "Bearer"):
		return authScheme{kind: schemeBearer, token: parts[1]}
	case strings.EqualFold(parts[0], "Basic"):
		decoded, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			return authScheme{kind: schemeNone}
		}
		email, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return authScheme{kind: schemeNone}
		}
		return authScheme{kind: schemeBasic, email: email, password: password}
	default:
		return authScheme{kind: schemeNone}
	}
}

// RequestAuthorizer resolves a principal per request from either a bearer
// session token or Basic credentials. Resolution failures leave the principal
// absent and let the request through; whether anonymity is fatal is each
// route's own decision.
type RequestAuthorizer struct {
	sessions    *SessionAuthority
	credentials *CredentialVerifier
}

// NewRequestAuthorizer constructs middleware.
func NewRequestAuthorizer(sessions *SessionAuthority, credentials *CredentialVerifier) *RequestAuthorizer {
	return &RequestAuthorizer{sessions: sessions, credentials: credentials}
}

// Handle resolves the Authorization header and attaches the principal, if any.
func (m *RequestAuthorizer) Handle(c *fiber.Ctx) error {
	scheme := parseAuthorizationHeader(c.Get(fiber.HeaderAuthorization))

	switch scheme.kind {
	case schemeBearer:
		c.Locals(bearerTokenKey, scheme.token)
		principal, err := m.sessions.Validate(c.Context(), scheme.token)
		if err != nil {
			var storage *StorageError
			if errors.As(err, &storage) {
				return err
			}
			break
		}
		c.Locals(principalKey, principal)

	case schemeBasic:
		user, err := m.credentials.Verify(c.Context(), scheme.email, scheme.password)
		if err != nil {
			var storage *StorageError
			if errors.As(err, &storage) {
				return err
			}
			break
		}
		// A matching credential on an inactive account still resolves no
		// principal.
		if user.Inactive {
			break
		}
		c.Locals(principalKey, &Principal{UserID: user.ID, Username: user.Username})
	}

	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// BearerTokenFromContext retrieves the raw bearer token the request carried,
// whether or not it resolved to a principal.
func BearerTokenFromContext(c *fiber.Ctx) (string, bool) {
	val := c.Locals(bearerTokenKey)
	if val == nil {
		return "", false
	}
	token, ok := val.(string)
	return token, ok && token != ""
}
