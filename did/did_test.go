package did

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	credentialstatus "github.com/pilacorp/go-identity-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	sdkjwt "github.com/pilacorp/go-identity-sdk/credential/common/jwt"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/proof"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
	"github.com/pilacorp/go-identity-sdk/credential/revocation"
)

func TestGenerateDID(t *testing.T) {
	manager := revocation.NewManager(revocation.WithCapacity(256))

	generator, err := NewDIDGenerator(WithMethod("did:nda:testnet"), WithRevocationManager(manager))
	require.NoError(t, err)

	for _, keyType := range []KeyType{KeyTypeSecp256k1, KeyTypeEd25519} {
		t.Run(string(keyType), func(t *testing.T) {
			created, err := generator.GenerateDID(CreateDID{
				Type:     TypePeople,
				KeyType:  keyType,
				Hash:     "0xabc",
				Metadata: map[string]interface{}{"name": "Alice"},
			})
			require.NoError(t, err)

			doc := created.Document
			assert.Regexp(t, `^did:nda:testnet:0x[0-9a-f]{40}$`, created.DID)
			assert.Equal(t, created.DID, doc.ID)
			assert.Equal(t, created.DID, doc.Controller)
			assert.Equal(t, map[string]interface{}{"type": "people", "hash": "0xabc", "name": "Alice"},
				doc.Additional["didDocumentMetadata"])

			jwk, err := document.ExtractJWK(doc, created.DID+"#key-1", document.SectionAssertionMethod)
			require.NoError(t, err)
			assert.NotEmpty(t, jwk.X)

			revoked, err := manager.IsRevoked(doc, 255)
			require.NoError(t, err)
			assert.False(t, revoked)

			version, err := doc.Hash()
			require.NoError(t, err)
			assert.Equal(t, version, created.Version)

			raw, err := json.Marshal(doc)
			require.NoError(t, err)

			var parsed model.DIDDocument
			require.NoError(t, json.Unmarshal(raw, &parsed))

			parsedVersion, err := parsed.Hash()
			require.NoError(t, err)
			assert.Equal(t, created.Version, parsedVersion)
		})
	}
}

func TestGenerateDID_SignAndVerify(t *testing.T) {
	generator, err := NewDIDGenerator(WithKeyType(KeyTypeEd25519))
	require.NoError(t, err)

	secp, err := generator.GenerateDID(CreateDID{Type: TypeItem, KeyType: KeyTypeSecp256k1})
	require.NoError(t, err)

	restored, err := KeyPairFromPrivateKeyHex(DefaultMethod, secp.Secret.PrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, secp.DID, restored.Identifier)

	ed, err := GenerateKeyPair(DefaultMethod, KeyTypeEd25519)
	require.NoError(t, err)

	edDID, err := generator.GenerateDIDFromKeyPair(ed, CreateDID{Type: TypeItem})
	require.NoError(t, err)

	signer, err := sdkjwt.NewJWTSigner(ed.Signer, edDID.DID+"#key-1")
	require.NoError(t, err)

	token, err := signer.SignClaims(map[string]interface{}{"iss": edDID.DID})
	require.NoError(t, err)

	edResolver := provider.ResolverFunc(func(context.Context, string) (*model.DIDDocument, error) {
		return edDID.Document.Clone(), nil
	})

	result, err := proof.NewVerifier(edResolver).VerifyJWT(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, edDID.DID+"#key-1", result.VerificationMethod)
}

func TestNewDIDGenerator(t *testing.T) {
	_, err := NewDIDGenerator(WithMethod("nda"))
	assert.Error(t, err)

	_, err = NewDIDGenerator(WithMethod("did:"))
	assert.Error(t, err)

	generator, err := NewDIDGenerator(WithoutRevocationService(), WithController("did:nda:issuer"))
	require.NoError(t, err)

	created, err := generator.GenerateDID(CreateDID{})
	require.NoError(t, err)
	assert.Empty(t, created.Document.Service)
	assert.Equal(t, "did:nda:issuer", created.Document.Controller)

	_, err = generator.GenerateDID(CreateDID{KeyType: "rsa"})
	assert.Error(t, err)
}

func TestGenerateDID_RevocationServiceType(t *testing.T) {
	manager := revocation.NewManager(revocation.WithCapacity(64),
		revocation.WithServiceType(credentialstatus.ServiceTypeRevocationBitmap2022))

	generator, err := NewDIDGenerator(WithRevocationManager(manager))
	require.NoError(t, err)

	created, err := generator.GenerateDID(CreateDID{Type: TypeLocation})
	require.NoError(t, err)

	require.Len(t, created.Document.Service, 1)
	assert.Equal(t, document.RevocationServiceID(created.DID), created.Document.Service[0].ID)
	assert.True(t, created.Document.Service[0].HasType(credentialstatus.ServiceTypeRevocationBitmap2022))
}

func TestAddressFromPublicKeyHex(t *testing.T) {
	keyPair, err := GenerateKeyPair(DefaultMethod, KeyTypeSecp256k1)
	require.NoError(t, err)

	address, err := AddressFromPublicKeyHex(keyPair.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, keyPair.Address, address)
	assert.Equal(t, ToDID(DefaultMethod, address), keyPair.Identifier)

	_, err = AddressFromPublicKeyHex("0x1234")
	assert.Error(t, err)

	_, err = AddressFromPublicKeyHex("zz")
	assert.Error(t, err)
}
