package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned by Verify when the signature does not match.
var ErrInvalidSignature = errors.New("signature verification failed")

// ParsePrivateKey parses a hex encoded secp256k1 private key, with or without
// the 0x prefix. The key must be 32 bytes.
func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKeyBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	if len(privateKeyBytes) != 32 {
		return nil, errors.New("private key must be 32 bytes")
	}

	privKey, err := ethcrypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return privKey, nil
}

// VerifyKeyPair verifies if a private key and public key match
func VerifyKeyPair(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey) bool {
	derivedPublicKey := &privateKey.PublicKey

	return derivedPublicKey.X.Cmp(publicKey.X) == 0 &&
		derivedPublicKey.Y.Cmp(publicKey.Y) == 0
}

// Sign signs data with priv. Ed25519 keys sign data as is, ECDSA keys sign its
// SHA-256 digest and return the 64 byte R || S form used by JWS.
func Sign(priv crypto.PrivateKey, data []byte) ([]byte, error) {
	switch k := priv.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(k, data), nil
	case *secp256k1.PrivateKey:
		return Sign(k.ToECDSA(), data)
	case *ecdsa.PrivateKey:
		digest := sha256.Sum256(data)

		if IsSecp256k1(k.Curve) {
			ethKey, err := ethcrypto.ToECDSA(k.D.FillBytes(make([]byte, 32)))
			if err != nil {
				return nil, fmt.Errorf("invalid secp256k1 private key: %w", err)
			}

			sig, err := ethcrypto.Sign(digest[:], ethKey)
			if err != nil {
				return nil, fmt.Errorf("failed to sign: %w", err)
			}

			// Drop the recovery id.
			return sig[:64], nil
		}

		r, s, err := ecdsa.Sign(rand.Reader, k, digest[:])
		if err != nil {
			return nil, fmt.Errorf("failed to sign: %w", err)
		}

		size := (k.Curve.Params().BitSize + 7) / 8
		sig := make([]byte, 2*size)
		r.FillBytes(sig[:size])
		s.FillBytes(sig[size:])

		return sig, nil
	default:
		return nil, fmt.Errorf("unsupported private key type %T", priv)
	}
}

// Verify checks a signature produced by Sign. It returns ErrInvalidSignature
// when the signature does not match and another error when the key or
// signature cannot be used at all.
func Verify(pub crypto.PublicKey, data, signature []byte) error {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		if len(k) != ed25519.PublicKeySize {
			return fmt.Errorf("invalid Ed25519 public key length %d", len(k))
		}

		if !ed25519.Verify(k, data, signature) {
			return ErrInvalidSignature
		}

		return nil
	case *secp256k1.PublicKey:
		return verifySecp256k1(k, data, signature)
	case *ecdsa.PublicKey:
		if IsSecp256k1(k.Curve) {
			sk, err := toSecp256k1(k)
			if err != nil {
				return err
			}

			return verifySecp256k1(sk, data, signature)
		}

		size := (k.Curve.Params().BitSize + 7) / 8
		if len(signature) != 2*size {
			return ErrInvalidSignature
		}

		digest := sha256.Sum256(data)
		r := new(big.Int).SetBytes(signature[:size])
		s := new(big.Int).SetBytes(signature[size:])

		if !ecdsa.Verify(k, digest[:], r, s) {
			return ErrInvalidSignature
		}

		return nil
	default:
		return fmt.Errorf("unsupported public key type %T", pub)
	}
}

func verifySecp256k1(pub *secp256k1.PublicKey, data, signature []byte) error {
	if len(signature) != 64 {
		return ErrInvalidSignature
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return ErrInvalidSignature
	}

	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return ErrInvalidSignature
	}

	digest := sha256.Sum256(data)

	if !dcrecdsa.NewSignature(&r, &s).Verify(digest[:], pub) {
		return ErrInvalidSignature
	}

	return nil
}
