package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// JWTSigner handles JWT signing operations for verifiable documents
type JWTSigner struct {
	privateKey crypto.PrivateKey
	keyID      string
	method     jwt.SigningMethod
}

// NewJWTSigner creates a signer for privateKey. keyID is written to the kid
// header and is normally the DID URL of the verification method.
// The algorithm follows the key: EdDSA, ES256 or ES256K.
func NewJWTSigner(privateKey crypto.PrivateKey, keyID string) (*JWTSigner, error) {
	method, err := signingMethodFor(privateKey)
	if err != nil {
		return nil, err
	}

	return &JWTSigner{
		privateKey: privateKey,
		keyID:      keyID,
		method:     method,
	}, nil
}

// SigningInput returns the header.payload string that SignDocument would sign.
func (s *JWTSigner) SigningInput(doc map[string]interface{}, docType string) (string, error) {
	token := s.newToken(documentClaims(doc, docType, nil))

	signingInput, err := token.SigningString()
	if err != nil {
		return "", fmt.Errorf("failed to get signing input: %w", err)
	}

	return signingInput, nil
}

// SignDocument signs a verifiable document (VC or VP) as a JWT carrying it
// under the docType claim. additionalClaims are merged into the payload.
func (s *JWTSigner) SignDocument(doc map[string]interface{}, docType string,
	additionalClaims ...map[string]interface{}) (string, error) {
	return s.SignClaims(documentClaims(doc, docType, additionalClaims))
}

// SignClaims signs an arbitrary claim set.
func (s *JWTSigner) SignClaims(claims map[string]interface{}) (string, error) {
	signedString, err := s.newToken(claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedString, nil
}

// GetPublicKey returns the public key associated with this signer
func (s *JWTSigner) GetPublicKey() (crypto.PublicKey, error) {
	return sdkcrypto.PublicKey(s.privateKey)
}

// PublicJWK returns the signer's public key as a JWK with kid and alg set.
func (s *JWTSigner) PublicJWK() (*model.JWK, error) {
	pub, err := s.GetPublicKey()
	if err != nil {
		return nil, err
	}

	jwk, err := sdkcrypto.JWKFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	jwk.Alg = s.method.Alg()
	jwk.Kid = s.keyID

	return jwk, nil
}

// GetKeyID returns the Key ID for this signer
func (s *JWTSigner) GetKeyID() string {
	return s.keyID
}

// Algorithm returns the JWS algorithm used by this signer.
func (s *JWTSigner) Algorithm() string {
	return s.method.Alg()
}

func (s *JWTSigner) newToken(claims map[string]interface{}) *jwt.Token {
	token := jwt.NewWithClaims(s.method, jwt.MapClaims(claims))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = s.keyID

	return token
}

func documentClaims(doc map[string]interface{}, docType string,
	additionalClaims []map[string]interface{}) map[string]interface{} {
	claims := map[string]interface{}{
		docType: doc,
	}

	// Get document ID from the document or generate one
	docID, ok := doc["id"].(string)
	if !ok || docID == "" {
		docID = "urn:uuid:" + uuid.NewString()
	}

	claims["jti"] = docID

	for _, extra := range additionalClaims {
		for key, value := range extra {
			claims[key] = value
		}
	}

	return claims
}

func signingMethodFor(privateKey crypto.PrivateKey) (jwt.SigningMethod, error) {
	switch k := privateKey.(type) {
	case ed25519.PrivateKey:
		return jwt.SigningMethodEdDSA, nil
	case *secp256k1.PrivateKey:
		return ES256K, nil
	case *ecdsa.PrivateKey:
		if sdkcrypto.IsSecp256k1(k.Curve) {
			return ES256K, nil
		}

		if k.Curve == elliptic.P256() {
			return jwt.SigningMethodES256, nil
		}

		return nil, fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
	default:
		return nil, fmt.Errorf("unsupported private key type %T", privateKey)
	}
}
