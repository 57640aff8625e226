package jwt

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
)

const (
	testPrivateKeyHex = "c6f8cf675b77523c3d3157d322b3c7c4cc14874f290407398361be1a4c1ed7d0"
	testIssuerDID     = "did:nda:testnet:0xb64b2b1168047d1745492c7025c5edba69e4f4f0"
)

func testSigners(t *testing.T) map[string]crypto.PrivateKey {
	t.Helper()

	secpKey, err := sdkcrypto.ParsePrivateKey(testPrivateKeyHex)
	require.NoError(t, err)

	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	p256Key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	return map[string]crypto.PrivateKey{
		sdkcrypto.AlgES256K: secpKey,
		sdkcrypto.AlgEdDSA:  edKey,
		sdkcrypto.AlgES256:  p256Key,
	}
}

// TestJWTSelfIssued tests JWT signing where the issuer is also the subject
func TestJWTSelfIssued(t *testing.T) {
	vcData := map[string]interface{}{
		"@context":     []string{"https://www.w3.org/2018/credentials/v1"},
		"id":           "urn:uuid:self-issued-credential-12345678",
		"type":         []string{"VerifiableCredential", "SelfIssuedCredential"},
		"issuer":       testIssuerDID,
		"issuanceDate": "2024-01-18T08:13:09Z",
		"credentialSubject": map[string]interface{}{
			"id":   testIssuerDID,
			"name": "NDA Testnet Issuer",
			"role": "Issuer",
		},
	}

	for alg, key := range testSigners(t) {
		t.Run(alg, func(t *testing.T) {
			signer, err := NewJWTSigner(key, testIssuerDID+"#key-1")
			require.NoError(t, err)
			assert.Equal(t, alg, signer.Algorithm())

			signedJWT, err := signer.SignDocument(vcData, "vc", map[string]interface{}{"iss": testIssuerDID})
			require.NoError(t, err)
			assert.Len(t, strings.Split(signedJWT, "."), 3)

			pub, err := signer.GetPublicKey()
			require.NoError(t, err)

			header, payload, err := Verify(signedJWT, pub, alg)
			require.NoError(t, err)
			assert.Equal(t, alg, header["alg"])
			assert.Equal(t, testIssuerDID+"#key-1", header["kid"])
			assert.Equal(t, testIssuerDID, payload["iss"])
			assert.Equal(t, "urn:uuid:self-issued-credential-12345678", payload["jti"])

			doc, err := GetDocumentFromJWT(signedJWT, "vc")
			require.NoError(t, err)
			assert.Equal(t, testIssuerDID, doc["issuer"])

			jwk, err := signer.PublicJWK()
			require.NoError(t, err)
			assert.Equal(t, alg, jwk.Alg)

			jwkAlg, err := sdkcrypto.Algorithm(jwk)
			require.NoError(t, err)
			assert.Equal(t, alg, jwkAlg)

			input, err := signer.SigningInput(vcData, "vc")
			require.NoError(t, err)
			assert.Len(t, strings.Split(input, "."), 2)
		})
	}
}

func TestVerify_Failures(t *testing.T) {
	keys := testSigners(t)

	signer, err := NewJWTSigner(keys[sdkcrypto.AlgES256K], testIssuerDID+"#key-1")
	require.NoError(t, err)

	token, err := signer.SignClaims(map[string]interface{}{"iss": testIssuerDID})
	require.NoError(t, err)

	pub, err := signer.GetPublicKey()
	require.NoError(t, err)

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		sig := []byte(parts[2])
		mid := len(sig) / 2
		if sig[mid] == 'A' {
			sig[mid] = 'B'
		} else {
			sig[mid] = 'A'
		}

		_, _, err := Verify(parts[0]+"."+parts[1]+"."+string(sig), pub, sdkcrypto.AlgES256K)
		assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid), "%v", err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewJWTSigner(keys[sdkcrypto.AlgES256], "did:example:other#key-1")
		require.NoError(t, err)

		otherSecp, err := sdkcrypto.ParsePrivateKey("0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
		require.NoError(t, err)

		otherPub, err := sdkcrypto.PublicKey(otherSecp)
		require.NoError(t, err)

		_, _, err = Verify(token, otherPub, sdkcrypto.AlgES256K)
		assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))

		p256Pub, err := other.GetPublicKey()
		require.NoError(t, err)

		_, _, err = Verify(token, p256Pub, sdkcrypto.AlgES256K)
		assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
	})

	t.Run("algorithm not allowed", func(t *testing.T) {
		_, _, err := Verify(token, pub, sdkcrypto.AlgEdDSA)
		assert.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, err := Verify("not-a-jwt", pub, sdkcrypto.AlgES256K)
		assert.True(t, errors.Is(err, jwt.ErrTokenMalformed))

		_, _, err = Decode("a.b")
		assert.Error(t, err)
	})
}

func TestNewJWTSigner_UnsupportedKey(t *testing.T) {
	p384, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = NewJWTSigner(p384, "did:example:abc#key-1")
	assert.Error(t, err)

	_, err = NewJWTSigner("c6f8cf67", "did:example:abc#key-1")
	assert.Error(t, err)
}

func TestGetDocumentFromJWT(t *testing.T) {
	signer, err := NewJWTSigner(testSigners(t)[sdkcrypto.AlgEdDSA], "did:example:holder#key-1")
	require.NoError(t, err)

	token, err := signer.SignDocument(map[string]interface{}{"type": "VerifiablePresentation"}, "vp")
	require.NoError(t, err)

	_, payload, err := Decode(token)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload["jti"].(string), "urn:uuid:"))

	_, err = GetDocumentFromJWT(token, "vc")
	assert.Error(t, err)

	doc, err := GetDocumentFromJWT(token, "vp")
	require.NoError(t, err)
	assert.Equal(t, "VerifiablePresentation", doc["type"])
}
