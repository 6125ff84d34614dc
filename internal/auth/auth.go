// Package auth resolves API keys to callers. Keys are stored hashed; the
// admin flag and plan tier come from authoritative user rows, never from the
// credential itself.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// HashAPIKey returns the hex sha256 digest compared against
// radar.users.api_key_hash. Raw keys never touch storage or logs.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ExtractAPIKey pulls the credential off a request: Authorization bearer
// token, X-API-Key header, or api_key query parameter. The query form exists
// for websocket clients that cannot set headers.
func ExtractAPIKey(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

type callerKey struct{}

// WithCaller stamps the authenticated caller onto the context.
func WithCaller(ctx context.Context, caller contracts.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom returns the caller stored by the auth middleware.
func CallerFrom(ctx context.Context) (contracts.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(contracts.Caller)
	return caller, ok
}
