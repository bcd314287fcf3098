package target

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenLifetime is the validity window of a minted Admin API token.
// The API rejects anything above 5 minutes.
const tokenLifetime = 5 * time.Minute

// splitAdminKey parses an "id:secret" Admin API key into its key id and
// the hex-decoded signing secret.
func splitAdminKey(key string) (string, []byte, error) {
	id, hexSecret, ok := strings.Cut(key, ":")
	if !ok || id == "" || hexSecret == "" {
		return "", nil, fmt.Errorf("admin key must be of the form id:secret")
	}
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return "", nil, fmt.Errorf("admin key secret is not hex: %w", err)
	}
	return id, secret, nil
}

// mintToken signs a short-lived HS256 token for the Admin API. The key
// id travels in the kid header; the audience is fixed to the admin
// endpoint root.
func mintToken(keyID string, secret []byte, now time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
		"aud": "/admin/",
	})
	tok.Header["kid"] = keyID

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}
