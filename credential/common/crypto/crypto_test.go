package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

func testKeys(t *testing.T) map[string]crypto.PrivateKey {
	t.Helper()

	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	p256Key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ethKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	dcrKey, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	return map[string]crypto.PrivateKey{
		"ed25519":   edKey,
		"p256":      p256Key,
		"secp256k1": ethKey,
		"dcrd":      dcrKey,
	}
}

func TestSignVerify(t *testing.T) {
	data := []byte("hello world")

	for name, priv := range testKeys(t) {
		t.Run(name, func(t *testing.T) {
			sig, err := Sign(priv, data)
			require.NoError(t, err)

			pub, err := PublicKey(priv)
			require.NoError(t, err)
			require.NoError(t, Verify(pub, data, sig))

			// Round trip through the JWK form.
			jwk, err := JWKFromPublicKey(pub)
			require.NoError(t, err)

			fromJWK, err := PublicKeyFromJWK(jwk)
			require.NoError(t, err)
			require.NoError(t, Verify(fromJWK, data, sig))

			err = Verify(fromJWK, []byte("hello world!"), sig)
			assert.True(t, errors.Is(err, ErrInvalidSignature))

			tampered := append([]byte(nil), sig...)
			tampered[len(tampered)/2] ^= 0x01
			err = Verify(fromJWK, data, tampered)
			assert.True(t, errors.Is(err, ErrInvalidSignature))

			assert.True(t, errors.Is(Verify(fromJWK, data, sig[:10]), ErrInvalidSignature))
		})
	}
}

func TestAlgorithm(t *testing.T) {
	keys := testKeys(t)

	tests := map[string]string{
		"ed25519":   AlgEdDSA,
		"p256":      AlgES256,
		"secp256k1": AlgES256K,
		"dcrd":      AlgES256K,
	}

	for name, want := range tests {
		pub, err := PublicKey(keys[name])
		require.NoError(t, err)

		jwk, err := JWKFromPublicKey(pub)
		require.NoError(t, err)

		alg, err := Algorithm(jwk)
		require.NoError(t, err)
		assert.Equal(t, want, alg, name)
	}

	_, err := Algorithm(&model.JWK{Kty: "RSA"})
	assert.Error(t, err)

	_, err = Algorithm(nil)
	assert.Error(t, err)
}

func TestPublicKeyFromJWK_Invalid(t *testing.T) {
	tests := []struct {
		name string
		jwk  *model.JWK
	}{
		{name: "nil", jwk: nil},
		{name: "unsupported", jwk: &model.JWK{Kty: "RSA", Crv: ""}},
		{name: "missing x", jwk: &model.JWK{Kty: KeyTypeOKP, Crv: CurveEd25519}},
		{name: "short x", jwk: &model.JWK{Kty: KeyTypeOKP, Crv: CurveEd25519, X: "AAAA"}},
		{name: "bad base64", jwk: &model.JWK{Kty: KeyTypeOKP, Crv: CurveEd25519, X: "!!"}},
		{name: "missing y", jwk: &model.JWK{
			Kty: KeyTypeEC, Crv: CurveP256, X: "f83OJ3D2xF1Bg8vub9tLe1gHMzV76e8Tus9uPHvRVEU",
		}},
		{name: "p256 point not on curve", jwk: &model.JWK{
			Kty: KeyTypeEC, Crv: CurveP256,
			X: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAE",
			Y: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAE",
		}},
		{name: "secp256k1 point not on curve", jwk: &model.JWK{
			Kty: KeyTypeEC, Crv: CurveSecp256k1,
			X: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAE",
			Y: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAE",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PublicKeyFromJWK(tt.jwk)
			assert.Error(t, err)
		})
	}
}

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey("0xc6f8cf675b77523c3d3157d322b3c7c4cc14874f290407398361be1a4c1ed7d0")
	require.NoError(t, err)
	assert.True(t, IsSecp256k1(key.Curve))
	assert.True(t, VerifyKeyPair(key, &key.PublicKey))

	_, err = ParsePrivateKey("abcd")
	assert.Error(t, err)

	_, err = ParsePrivateKey("zz")
	assert.Error(t, err)
}

func TestIsSecp256k1(t *testing.T) {
	assert.True(t, IsSecp256k1(ethcrypto.S256()))
	assert.False(t, IsSecp256k1(elliptic.P256()))
	assert.False(t, IsSecp256k1(nil))
}
