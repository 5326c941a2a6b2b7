package websocket

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestPrefix tags hub-minted identities for unauthenticated clients.
// A token that already carries this prefix is a guest id handed out on
// a previous connection and is reused as-is so reloading a tab keeps a
// stable identity.
const GuestPrefix = "anonymous_"

const guestSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ResolveIdentity turns the connection-time credential into a stable
// identity string. A verified token yields its userId claim; anything
// else yields a guest identity.
//
// The admission policy is lenient: a present-but-invalid token does not
// reject the connection, it is treated as an unauthenticated client and
// given a fresh guest id. The decision is made once here and never
// revisited for the connection's lifetime.
func ResolveIdentity(token, secret string) string {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return mintGuestID()
	}
	if strings.HasPrefix(token, GuestPrefix) {
		return token
	}

	userID, err := verifyToken(token, secret)
	if err != nil {
		slog.Debug("token rejected, admitting as guest", "error", err)
		return mintGuestID()
	}
	return userID
}

// verifyToken checks signature and expiry against the shared secret and
// extracts the userId claim.
func verifyToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	switch userID := claims["userId"].(type) {
	case string:
		if userID == "" {
			return "", fmt.Errorf("empty userId claim")
		}
		return userID, nil
	case float64:
		return strconv.FormatFloat(userID, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("missing userId claim")
	}
}

// mintGuestID builds anonymous_<unix-ms>_<random suffix>. The timestamp
// plus nine random base36 characters keeps collision probability
// negligible for the process lifetime.
func mintGuestID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = guestSuffixAlphabet[rand.Intn(len(guestSuffixAlphabet))]
	}
	return fmt.Sprintf("%s%d_%s", GuestPrefix, time.Now().UnixMilli(), suffix)
}
