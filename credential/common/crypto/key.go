package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// JWK key types and curves.
const (
	KeyTypeOKP = "OKP"
	KeyTypeEC  = "EC"

	CurveEd25519   = "Ed25519"
	CurveP256      = "P-256"
	CurveSecp256k1 = "secp256k1"
)

// JWS algorithms implied by a key.
const (
	AlgEdDSA  = "EdDSA"
	AlgES256  = "ES256"
	AlgES256K = "ES256K"
)

const coordinateSize = 32

// PublicKeyFromJWK converts a JWK into a public key usable for verification.
// The result is an ed25519.PublicKey, an *ecdsa.PublicKey on P-256 or a
// *secp256k1.PublicKey.
func PublicKeyFromJWK(jwk *model.JWK) (crypto.PublicKey, error) {
	if jwk == nil {
		return nil, fmt.Errorf("jwk is nil")
	}

	switch {
	case jwk.Kty == KeyTypeOKP && jwk.Crv == CurveEd25519:
		x, err := decodeCoordinate(jwk.X, ed25519.PublicKeySize)
		if err != nil {
			return nil, fmt.Errorf("invalid Ed25519 jwk: %w", err)
		}

		return ed25519.PublicKey(x), nil
	case jwk.Kty == KeyTypeEC && jwk.Crv == CurveP256:
		x, y, err := decodeXY(jwk)
		if err != nil {
			return nil, fmt.Errorf("invalid P-256 jwk: %w", err)
		}

		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: new(big.Int).SetBytes(x), Y: new(big.Int).SetBytes(y)}
		if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
			return nil, fmt.Errorf("invalid P-256 jwk: point is not on the curve")
		}

		return pub, nil
	case jwk.Kty == KeyTypeEC && jwk.Crv == CurveSecp256k1:
		x, y, err := decodeXY(jwk)
		if err != nil {
			return nil, fmt.Errorf("invalid secp256k1 jwk: %w", err)
		}

		uncompressed := make([]byte, 0, 1+2*coordinateSize)
		uncompressed = append(uncompressed, 0x04)
		uncompressed = append(uncompressed, x...)
		uncompressed = append(uncompressed, y...)

		pub, err := btcec.ParsePubKey(uncompressed)
		if err != nil {
			return nil, fmt.Errorf("invalid secp256k1 jwk: %w", err)
		}

		return pub, nil
	default:
		return nil, fmt.Errorf("unsupported jwk kty %q crv %q", jwk.Kty, jwk.Crv)
	}
}

// JWKFromPublicKey converts a public key into its JWK form. go-ethereum keys
// are recognised as secp256k1.
func JWKFromPublicKey(pub crypto.PublicKey) (*model.JWK, error) {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		return &model.JWK{Kty: KeyTypeOKP, Crv: CurveEd25519, X: base64.RawURLEncoding.EncodeToString(k)}, nil
	case *ed25519.PublicKey:
		return JWKFromPublicKey(*k)
	case *secp256k1.PublicKey:
		raw := k.SerializeUncompressed()

		return &model.JWK{
			Kty: KeyTypeEC,
			Crv: CurveSecp256k1,
			X:   base64.RawURLEncoding.EncodeToString(raw[1 : 1+coordinateSize]),
			Y:   base64.RawURLEncoding.EncodeToString(raw[1+coordinateSize:]),
		}, nil
	case *ecdsa.PublicKey:
		if IsSecp256k1(k.Curve) {
			sk, err := toSecp256k1(k)
			if err != nil {
				return nil, err
			}

			return JWKFromPublicKey(sk)
		}

		if k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
		}

		return &model.JWK{
			Kty: KeyTypeEC,
			Crv: CurveP256,
			X:   base64.RawURLEncoding.EncodeToString(k.X.FillBytes(make([]byte, coordinateSize))),
			Y:   base64.RawURLEncoding.EncodeToString(k.Y.FillBytes(make([]byte, coordinateSize))),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}

// Algorithm returns the JWS algorithm implied by the key described by jwk.
func Algorithm(jwk *model.JWK) (string, error) {
	if jwk == nil {
		return "", fmt.Errorf("jwk is nil")
	}

	switch {
	case jwk.Kty == KeyTypeOKP && jwk.Crv == CurveEd25519:
		return AlgEdDSA, nil
	case jwk.Kty == KeyTypeEC && jwk.Crv == CurveP256:
		return AlgES256, nil
	case jwk.Kty == KeyTypeEC && jwk.Crv == CurveSecp256k1:
		return AlgES256K, nil
	default:
		return "", fmt.Errorf("unsupported jwk kty %q crv %q", jwk.Kty, jwk.Crv)
	}
}

// PublicKey returns the public half of a supported private key.
func PublicKey(priv crypto.PrivateKey) (crypto.PublicKey, error) {
	switch k := priv.(type) {
	case ed25519.PrivateKey:
		return k.Public(), nil
	case *ecdsa.PrivateKey:
		return &k.PublicKey, nil
	case *secp256k1.PrivateKey:
		return k.PubKey(), nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T", priv)
	}
}

// IsSecp256k1 returns true if curve is secp256k1, whichever implementation
// provides it.
func IsSecp256k1(curve elliptic.Curve) bool {
	if curve == nil {
		return false
	}

	return curve.Params().P.Cmp(btcec.S256().Params().P) == 0 &&
		curve.Params().N.Cmp(btcec.S256().Params().N) == 0
}

func toSecp256k1(pub *ecdsa.PublicKey) (*secp256k1.PublicKey, error) {
	key, err := secp256k1.ParsePubKey(ethcrypto.CompressPubkey(pub))
	if err != nil {
		return nil, fmt.Errorf("invalid secp256k1 public key: %w", err)
	}

	return key, nil
}

func decodeXY(jwk *model.JWK) ([]byte, []byte, error) {
	x, err := decodeCoordinate(jwk.X, coordinateSize)
	if err != nil {
		return nil, nil, fmt.Errorf("x: %w", err)
	}

	y, err := decodeCoordinate(jwk.Y, coordinateSize)
	if err != nil {
		return nil, nil, fmt.Errorf("y: %w", err)
	}

	return x, y, nil
}

func decodeCoordinate(value string, size int) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("coordinate is missing")
	}

	b, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode coordinate: %w", err)
	}

	if len(b) != size {
		return nil, fmt.Errorf("coordinate must be %d bytes, got %d", size, len(b))
	}

	return b, nil
}
