package permissions

import (
	"crypto/subtle"
	"fmt"
	"strings"
)

// TokenAuthenticator maps static bearer tokens to roles.
type TokenAuthenticator struct {
	tokens      map[string]Role
	collections []string
}

// ParseTokens builds an authenticator from "token:role" entries.
func ParseTokens(entries []string, collections ...string) (*TokenAuthenticator, error) {
	auth := &TokenAuthenticator{tokens: map[string]Role{}, collections: collections}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, roleName, ok := strings.Cut(entry, ":")
		if !ok || strings.TrimSpace(token) == "" {
			return nil, fmt.Errorf("permissions: token entry must be token:role")
		}
		role, err := ParseRole(roleName)
		if err != nil {
			return nil, err
		}
		auth.tokens[strings.TrimSpace(token)] = role
	}
	return auth, nil
}

// Public returns the anonymous actor.
func (a *TokenAuthenticator) Public() Actor {
	return Actor{Role: RolePublic, Checker: RolePermissions(RolePublic, a.collections...)}
}

// Authenticate resolves token to an actor. Unknown tokens report false.
func (a *TokenAuthenticator) Authenticate(token string) (Actor, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Actor{}, false
	}
	for known, role := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(known), []byte(token)) == 1 {
			return Actor{Name: string(role), Role: role, Checker: RolePermissions(role, a.collections...)}, true
		}
	}
	return Actor{}, false
}
