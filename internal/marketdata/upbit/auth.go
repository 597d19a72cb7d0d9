package upbit

import (
	"crypto/sha512"
	"encoding/hex"
	"net/url"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signer produces the per-request JWT Upbit's private endpoints expect:
// HS256 over access key, a fresh nonce, and a SHA512 hash of the encoded
// query when one is present.
type signer struct {
	accessKey string
	secretKey string
}

func (s *signer) token(query url.Values) (string, error) {
	claims := jwt.MapClaims{
		"access_key": s.accessKey,
		"nonce":      uuid.NewString(),
	}
	if len(query) > 0 {
		sum := sha512.Sum512([]byte(query.Encode()))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secretKey))
}
