package jwt

import (
	"crypto/ecdsa"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
)

// SigningMethodES256K implements ES256K (ECDSA over secp256k1 with SHA-256).
type SigningMethodES256K struct{}

// ES256K is the ES256K signing method instance
var ES256K = &SigningMethodES256K{}

func init() {
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})
}

// Alg returns the algorithm name
func (m *SigningMethodES256K) Alg() string {
	return sdkcrypto.AlgES256K
}

// Sign signs signingString with a secp256k1 private key, given as an
// *ecdsa.PrivateKey or a *secp256k1.PrivateKey. The signature is R || S.
func (m *SigningMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		if !sdkcrypto.IsSecp256k1(k.Curve) {
			return nil, jwt.ErrInvalidKeyType
		}
	case *secp256k1.PrivateKey:
	default:
		return nil, jwt.ErrInvalidKeyType
	}

	return sdkcrypto.Sign(key, []byte(signingString))
}

// Verify verifies an R || S signature with a secp256k1 public key.
func (m *SigningMethodES256K) Verify(signingString string, signature []byte, key interface{}) error {
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		if !sdkcrypto.IsSecp256k1(k.Curve) {
			return jwt.ErrInvalidKeyType
		}
	case *secp256k1.PublicKey:
	default:
		return jwt.ErrInvalidKeyType
	}

	err := sdkcrypto.Verify(key, []byte(signingString), signature)
	if errors.Is(err, sdkcrypto.ErrInvalidSignature) {
		return jwt.ErrSignatureInvalid
	}

	return err
}
