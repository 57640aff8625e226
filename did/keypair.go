package did

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
)

// GenerateKeyPair generates a key pair of the given type and derives its DID
// under method.
func GenerateKeyPair(method string, keyType KeyType) (*KeyPair, error) {
	switch keyType {
	case KeyTypeSecp256k1, "":
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %w", err)
		}

		return ecdsaKeyPair(method, privateKey), nil
	case KeyTypeEd25519:
		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to generate private key: %w", err)
		}

		return ed25519KeyPair(method, privateKey), nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", keyType)
	}
}

// KeyPairFromPrivateKeyHex restores a secp256k1 key pair from its hex form.
// The 0x prefix is optional.
func KeyPairFromPrivateKeyHex(method, privateKeyHex string) (*KeyPair, error) {
	privateKey, err := sdkcrypto.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	return ecdsaKeyPair(method, privateKey), nil
}

func ecdsaKeyPair(method string, privateKey *ecdsa.PrivateKey) *KeyPair {
	address := strings.ToLower(crypto.PubkeyToAddress(privateKey.PublicKey).Hex())

	return &KeyPair{
		KeyType:    KeyTypeSecp256k1,
		Address:    address,
		PublicKey:  "0x" + hex.EncodeToString(crypto.CompressPubkey(&privateKey.PublicKey)),
		PrivateKey: "0x" + hex.EncodeToString(crypto.FromECDSA(privateKey)),
		Identifier: ToDID(method, address),
		Signer:     privateKey,
	}
}

// ed25519KeyPair derives the address as the last 20 bytes of the Keccak256
// hash of the public key, as for secp256k1 keys.
func ed25519KeyPair(method string, privateKey ed25519.PrivateKey) *KeyPair {
	publicKey := privateKey.Public().(ed25519.PublicKey)
	address := strings.ToLower(common.BytesToAddress(crypto.Keccak256(publicKey)[12:]).Hex())

	return &KeyPair{
		KeyType:    KeyTypeEd25519,
		Address:    address,
		PublicKey:  "0x" + hex.EncodeToString(publicKey),
		PrivateKey: "0x" + hex.EncodeToString(privateKey.Seed()),
		Identifier: ToDID(method, address),
		Signer:     privateKey,
	}
}

// AddressFromPublicKeyHex converts a hex-encoded secp256k1 public key,
// compressed (33 bytes) or uncompressed (65 bytes), to an address.
func AddressFromPublicKeyHex(publicKeyHex string) (string, error) {
	publicKeyBytes, err := hex.DecodeString(strings.TrimPrefix(publicKeyHex, "0x"))
	if err != nil {
		return "", fmt.Errorf("failed to decode public key hex: %w", err)
	}

	var publicKey *ecdsa.PublicKey

	switch {
	case len(publicKeyBytes) == 33 && (publicKeyBytes[0] == 0x02 || publicKeyBytes[0] == 0x03):
		publicKey, err = crypto.DecompressPubkey(publicKeyBytes)
		if err != nil {
			return "", fmt.Errorf("failed to decompress public key: %w", err)
		}
	case len(publicKeyBytes) == 65 && publicKeyBytes[0] == 0x04:
		publicKey, err = crypto.UnmarshalPubkey(publicKeyBytes)
		if err != nil {
			return "", fmt.Errorf("failed to unmarshal public key: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported public key format: expected 33 or 65 bytes, got %d bytes", len(publicKeyBytes))
	}

	return strings.ToLower(crypto.PubkeyToAddress(*publicKey).Hex()), nil
}

// ToDID converts a method and address to a DID.
func ToDID(method, address string) string {
	return strings.ToLower(fmt.Sprintf("%s:%s", method, address))
}
