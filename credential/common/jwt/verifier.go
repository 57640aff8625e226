package jwt

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verify checks the signature of tokenString with publicKey, accepting only
// the given algorithm. Registered claims such as exp and nbf are not
// validated. Failures wrap jwt.ErrTokenMalformed for undecodable tokens and
// jwt.ErrTokenSignatureInvalid for signature or algorithm mismatches.
func Verify(tokenString string, publicKey crypto.PublicKey, alg string) (map[string]interface{}, map[string]interface{}, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify JWT: %w", err)
	}

	return token.Header, claims, nil
}
