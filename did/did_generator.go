package did

import (
	"fmt"
	"maps"
	"strings"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/revocation"
)

// VerificationMethodType is the type of generated verification methods.
const VerificationMethodType = "JsonWebKey2020"

// DIDGenerator generates key pairs and their DID documents.
type DIDGenerator struct {
	baseConfig DIDConfig
}

// NewDIDGenerator creates a new DIDGenerator. Documents get a revocation
// service sized by the environment configuration unless
// WithoutRevocationService is given.
func NewDIDGenerator(options ...DIDOption) (*DIDGenerator, error) {
	cfg := DIDConfig{
		Method:     DefaultMethod,
		KeyType:    KeyTypeSecp256k1,
		Revocation: revocation.NewManager(),
	}

	for _, opt := range options {
		opt(&cfg)
	}

	if !strings.HasPrefix(cfg.Method, "did:") || len(cfg.Method) == len("did:") {
		return nil, fmt.Errorf("invalid DID method %q", cfg.Method)
	}

	return &DIDGenerator{baseConfig: cfg}, nil
}

// GenerateDID generates a new key pair and its DID document.
func (d *DIDGenerator) GenerateDID(newDID CreateDID) (*DID, error) {
	keyType := newDID.KeyType
	if keyType == "" {
		keyType = d.baseConfig.KeyType
	}

	keyPair, err := GenerateKeyPair(d.baseConfig.Method, keyType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	return d.GenerateDIDFromKeyPair(keyPair, newDID)
}

// GenerateDIDFromKeyPair builds the DID document of an existing key pair.
func (d *DIDGenerator) GenerateDIDFromKeyPair(keyPair *KeyPair, newDID CreateDID) (*DID, error) {
	doc, err := GenerateDIDDocument(keyPair, newDID, d.baseConfig.Controller)
	if err != nil {
		return nil, err
	}

	if d.baseConfig.Revocation != nil {
		doc, err = d.baseConfig.Revocation.AddRevocationService(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to add revocation service: %w", err)
		}
	}

	version, err := doc.Hash()
	if err != nil {
		return nil, fmt.Errorf("failed to hash DID document: %w", err)
	}

	return &DID{
		DID:      keyPair.Identifier,
		Secret:   Secret{PrivateKeyHex: keyPair.PrivateKey},
		Document: doc,
		Version:  version,
	}, nil
}

// GenerateDIDDocument creates a DID document publishing the key pair's public
// key as <did>#key-1, referenced from authentication and assertionMethod.
// The DID type, hash and metadata are kept under didDocumentMetadata. An
// empty controller makes the DID its own controller.
func GenerateDIDDocument(keyPair *KeyPair, newDID CreateDID, controller string) (*model.DIDDocument, error) {
	if keyPair == nil || keyPair.Signer == nil {
		return nil, fmt.Errorf("key pair is required")
	}

	publicKey, err := sdkcrypto.PublicKey(keyPair.Signer)
	if err != nil {
		return nil, err
	}

	jwk, err := sdkcrypto.JWKFromPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	did := keyPair.Identifier
	if controller == "" {
		controller = did
	}

	docMetadata := make(map[string]interface{}, len(newDID.Metadata)+2)
	maps.Copy(docMetadata, newDID.Metadata)

	if newDID.Type != "" {
		docMetadata["type"] = string(newDID.Type)
	}

	if newDID.Hash != "" {
		docMetadata["hash"] = newDID.Hash
	}

	keyID := did + "#key-1"

	return &model.DIDDocument{
		Context: []interface{}{
			"https://www.w3.org/ns/did/v1",
			"https://w3id.org/security/suites/jws-2020/v1",
		},
		ID:         did,
		Controller: controller,
		VerificationMethod: []model.VerificationRelationship{{Method: &model.VerificationMethod{
			ID:           keyID,
			Type:         VerificationMethodType,
			Controller:   did,
			PublicKeyJwk: jwk,
		}}},
		Authentication:  []model.VerificationRelationship{{Reference: keyID}},
		AssertionMethod: []model.VerificationRelationship{{Reference: keyID}},
		Additional: map[string]interface{}{
			"didDocumentMetadata": docMetadata,
		},
	}, nil
}
