package auth

import (
	"net/http"
	"strings"
)

// TokenQueryParam is the query parameter that may carry the credential.
const TokenQueryParam = "token"

// ExtractToken returns the bearer credential of a connection attempt. Sources
// are tried in order and the first present one wins: the handshake auth field,
// the "token" query parameter, then an "Authorization: Bearer" header.
func ExtractToken(handshakeToken string, r *http.Request) (string, error) {
	if token := strings.TrimSpace(handshakeToken); token != "" {
		return token, nil
	}
	if r == nil {
		return "", authError("no credential provided", nil)
	}
	if token := strings.TrimSpace(r.URL.Query().Get(TokenQueryParam)); token != "" {
		return token, nil
	}
	if token, ok := bearer(r.Header.Get("Authorization")); ok {
		return token, nil
	}
	return "", authError("no credential provided", nil)
}

// bearer extracts the token from an Authorization header value.
func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
