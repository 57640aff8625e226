package did

import (
	"crypto"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// DIDType is the kind of entity a DID identifies.
type DIDType string

const (
	TypeItem     DIDType = "item"
	TypePeople   DIDType = "people"
	TypeLocation DIDType = "location"
	TypeActivity DIDType = "activity"
	TypeDefault  DIDType = "default"
)

// KeyType selects the key pair a DID is generated with.
type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "secp256k1"
	KeyTypeEd25519   KeyType = "ed25519"
)

// KeyPair represents the generated key pair and DID identifier.
type KeyPair struct {
	KeyType    KeyType           `json:"keyType"`
	Address    string            `json:"address"`
	PublicKey  string            `json:"publicKey"`
	PrivateKey string            `json:"privateKey"`
	Identifier string            `json:"identifier"`
	Signer     crypto.PrivateKey `json:"-"`
}

// CreateDID describes the DID to generate.
type CreateDID struct {
	Type     DIDType                `json:"type"`
	KeyType  KeyType                `json:"keyType,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
	Hash     string                 `json:"hash"`
}

// DID is a generated DID with its secret and document. Version is the
// document hash stores use for compare-and-swap.
type DID struct {
	DID      string             `json:"did"`
	Secret   Secret             `json:"secret"`
	Document *model.DIDDocument `json:"document"`
	Version  string             `json:"version"`
}

type Secret struct {
	PrivateKeyHex string `json:"privateKeyHex"`
}
