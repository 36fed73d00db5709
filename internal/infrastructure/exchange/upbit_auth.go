package exchange

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"premium-monitor/internal/infrastructure/httpx"
)

// UpbitSigner signs private Upbit calls with a fresh HS256 JWT per request:
// access_key plus a unique nonce, and a SHA512 hash of the query when present.
type UpbitSigner struct {
	AccessKey string
	SecretKey string
	// NewNonce overrides nonce generation in tests.
	NewNonce func() string
}

var _ httpx.Signer = (*UpbitSigner)(nil)

func (s *UpbitSigner) Sign(r *http.Request) error {
	if s.AccessKey == "" || s.SecretKey == "" {
		return errors.New("upbit: missing access or secret key")
	}
	nonce := uuid.NewString()
	if s.NewNonce != nil {
		nonce = s.NewNonce()
	}
	claims := jwt.MapClaims{
		"access_key": s.AccessKey,
		"nonce":      nonce,
	}
	if q := r.URL.RawQuery; q != "" {
		sum := sha512.Sum512([]byte(q))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SecretKey))
	if err != nil {
		return fmt.Errorf("upbit: sign: %w", err)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return nil
}
