package proof

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	sdkjwt "github.com/pilacorp/go-identity-sdk/credential/common/jwt"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

const (
	issuerDID = "did:x:issuer"
	holderDID = "did:x:holder"
)

type mockResolver struct {
	mutex sync.Mutex
	docs  map[string]*model.DIDDocument
	calls map[string]int
	err   error
}

func newMockResolver() *mockResolver {
	return &mockResolver{
		docs:  make(map[string]*model.DIDDocument),
		calls: make(map[string]int),
	}
}

func (r *mockResolver) Resolve(_ context.Context, did string) (*model.DIDDocument, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.calls[did]++

	if r.err != nil {
		return nil, r.err
	}

	doc, ok := r.docs[did]
	if !ok {
		return nil, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeDocumentNotFound, did)
	}

	return doc, nil
}

func (r *mockResolver) callCount(did string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.calls[did]
}

// addIdentity publishes a document for did whose key-1 is priv, in the given section.
func (r *mockResolver) addIdentity(t *testing.T, did string, priv crypto.PrivateKey, section string) {
	t.Helper()

	pub, err := sdkcrypto.PublicKey(priv)
	require.NoError(t, err)

	jwk, err := sdkcrypto.JWKFromPublicKey(pub)
	require.NoError(t, err)

	vm := &model.VerificationMethod{
		ID:           did + "#key-1",
		Type:         "JsonWebKey2020",
		Controller:   did,
		PublicKeyJwk: jwk,
	}

	doc := &model.DIDDocument{ID: did}

	switch section {
	case model.FieldAssertionMethod:
		doc.AssertionMethod = []model.VerificationRelationship{{Method: vm}}
	default:
		doc.VerificationMethod = []model.VerificationRelationship{{Method: vm}}
		doc.AssertionMethod = []model.VerificationRelationship{{Reference: vm.ID}}
	}

	r.docs[did] = doc
}

func newEd25519Key(t *testing.T) ed25519.PrivateKey {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return priv
}

func signJWT(t *testing.T, priv crypto.PrivateKey, kid string, claims map[string]interface{}) string {
	t.Helper()

	signer, err := sdkjwt.NewJWTSigner(priv, kid)
	require.NoError(t, err)

	token, err := signer.SignClaims(claims)
	require.NoError(t, err)

	return token
}

func flipSignatureChar(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	mid := len(sig) / 2

	if sig[mid] == 'A' {
		sig[mid] = 'B'
	} else {
		sig[mid] = 'A'
	}

	return parts[0] + "." + parts[1] + "." + string(sig)
}

func TestVerifyJWT(t *testing.T) {
	issuerKey := newEd25519Key(t)
	secpKey, err := sdkcrypto.ParsePrivateKey("c6f8cf675b77523c3d3157d322b3c7c4cc14874f290407398361be1a4c1ed7d0")
	require.NoError(t, err)

	resolver := newMockResolver()
	resolver.addIdentity(t, issuerDID, issuerKey, "")
	resolver.addIdentity(t, "did:x:secp", secpKey, "")

	verifier := NewVerifier(resolver)

	t.Run("valid", func(t *testing.T) {
		token := signJWT(t, issuerKey, issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID, "jti": "urn:1"})

		result, err := verifier.VerifyJWT(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "EdDSA", result.Header["alg"])
		assert.Equal(t, "urn:1", result.Payload["jti"])
		assert.Equal(t, issuerDID, result.Issuer())
		assert.Equal(t, issuerDID+"#key-1", result.VerificationMethod)
		assert.Equal(t, issuerDID, result.Document.ID)
	})

	t.Run("ES256K", func(t *testing.T) {
		token := signJWT(t, secpKey, "did:x:secp#key-1", map[string]interface{}{"iss": "did:x:secp"})

		_, err := verifier.VerifyJWT(context.Background(), token)
		require.NoError(t, err)
	})

	t.Run("relative kid", func(t *testing.T) {
		token := signJWT(t, issuerKey, "#key-1", map[string]interface{}{"iss": issuerDID})

		result, err := verifier.VerifyJWT(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, issuerDID+"#key-1", result.VerificationMethod)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := signJWT(t, issuerKey, issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), flipSignatureChar(token))
		require.Error(t, err)
		assert.True(t, sdkerrors.IsSignatureInvalid(err), "%v", err)
		assert.False(t, sdkerrors.IsNotFound(err))
	})

	t.Run("signed by another key", func(t *testing.T) {
		token := signJWT(t, newEd25519Key(t), issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), token)
		assert.True(t, sdkerrors.IsSignatureInvalid(err))
	})

	t.Run("alg does not match key", func(t *testing.T) {
		// An ES256K token presented with the issuer's Ed25519 key id.
		token := signJWT(t, secpKey, issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), token)
		assert.True(t, sdkerrors.IsSignatureInvalid(err))
	})

	t.Run("missing kid", func(t *testing.T) {
		token := signJWT(t, issuerKey, "", map[string]interface{}{"iss": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), token)
		assert.True(t, errors.Is(err, sdkerrors.ErrGuard))
	})

	t.Run("missing iss", func(t *testing.T) {
		token := signJWT(t, issuerKey, issuerDID+"#key-1", map[string]interface{}{"sub": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), token)
		assert.True(t, errors.Is(err, sdkerrors.ErrGuard))
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := verifier.VerifyJWT(context.Background(), "abc.def")
		assert.True(t, errors.Is(err, sdkerrors.ErrDecode))
	})

	t.Run("unknown verification method", func(t *testing.T) {
		token := signJWT(t, issuerKey, issuerDID+"#key-9", map[string]interface{}{"iss": issuerDID})

		_, err := verifier.VerifyJWT(context.Background(), token)
		assert.True(t, sdkerrors.IsNotFound(err))
		assert.Equal(t, sdkerrors.CodeVerificationMethodNotFound, sdkerrors.CodeOf(err))
	})

	t.Run("resolver error is propagated unchanged", func(t *testing.T) {
		resolverErr := sdkerrors.Wrap(sdkerrors.ErrResolutionFailed, "", issuerDID, errors.New("ledger unavailable"))

		failing := newMockResolver()
		failing.err = resolverErr

		token := signJWT(t, issuerKey, issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID})

		_, err := NewVerifier(failing).VerifyJWT(context.Background(), token)
		assert.Same(t, resolverErr, err)
	})
}

func TestVerifyJWT_Section(t *testing.T) {
	issuerKey := newEd25519Key(t)

	resolver := newMockResolver()
	resolver.addIdentity(t, issuerDID, issuerKey, model.FieldAssertionMethod)

	token := signJWT(t, issuerKey, issuerDID+"#key-1", map[string]interface{}{"iss": issuerDID})

	// The default scan falls back to assertionMethod.
	_, err := NewVerifier(resolver).VerifyJWT(context.Background(), token)
	require.NoError(t, err)

	_, err = NewVerifier(resolver, WithSection(document.SectionAssertionMethod)).VerifyJWT(context.Background(), token)
	require.NoError(t, err)

	_, err = NewVerifier(resolver, WithSection(document.SectionAuthentication)).VerifyJWT(context.Background(), token)
	assert.True(t, sdkerrors.IsNotFound(err))
}

func securedDocument() map[string]interface{} {
	return map[string]interface{}{
		"@context": map[string]interface{}{"@vocab": "https://example.com/vocab#"},
		"id":       "urn:example:vc:1",
		"issuer":   issuerDID,
		"credentialSubject": map[string]interface{}{
			"id":   holderDID,
			"name": "Alice",
		},
	}
}

func TestVerifyDocumentProof(t *testing.T) {
	issuerKey := newEd25519Key(t)
	holderKey := newEd25519Key(t)

	resolver := newMockResolver()
	resolver.addIdentity(t, issuerDID, issuerKey, "")
	resolver.addIdentity(t, holderDID, holderKey, "")

	opts := func(did string) sdkcrypto.ProofOptions {
		return sdkcrypto.ProofOptions{VerificationMethod: did + "#key-1", Created: time.Now()}
	}

	t.Run("single proof", func(t *testing.T) {
		doc, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, issuerKey, opts(issuerDID))
		require.NoError(t, err)
		assert.IsType(t, map[string]interface{}{}, doc["proof"])

		valid, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
		require.NoError(t, err)
		assert.True(t, valid)
	})

	t.Run("proof set with cached resolution", func(t *testing.T) {
		counting := newMockResolver()
		counting.addIdentity(t, issuerDID, issuerKey, "")
		counting.addIdentity(t, holderDID, holderKey, "")

		doc, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, issuerKey, opts(issuerDID))
		require.NoError(t, err)

		doc, err = AddProof(doc, sdkcrypto.SuiteEdDSARDFC2022, issuerKey, opts(issuerDID))
		require.NoError(t, err)

		doc, err = AddProof(doc, sdkcrypto.SuiteEdDSAJCS2022, holderKey, opts(holderDID))
		require.NoError(t, err)
		require.Len(t, doc["proof"], 3)

		valid, err := NewVerifier(counting).VerifyDocumentProof(context.Background(), doc)
		require.NoError(t, err)
		assert.True(t, valid)

		assert.Equal(t, 1, counting.callCount(issuerDID), "one resolution per DID per call")
		assert.Equal(t, 1, counting.callCount(holderDID))

		// The cache does not outlive the call.
		_, err = NewVerifier(counting).VerifyDocumentProof(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, 2, counting.callCount(issuerDID))
	})

	t.Run("tampered document", func(t *testing.T) {
		doc, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, issuerKey, opts(issuerDID))
		require.NoError(t, err)

		doc["credentialSubject"].(map[string]interface{})["name"] = "Mallory"

		valid, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("fail fast", func(t *testing.T) {
		counting := newMockResolver()
		counting.addIdentity(t, issuerDID, issuerKey, "")

		// The first proof is made with a key the issuer document does not publish.
		doc, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, holderKey, opts(issuerDID))
		require.NoError(t, err)

		// The second references an unresolvable DID and is never looked at.
		doc, err = AddProof(doc, sdkcrypto.SuiteEdDSAJCS2022, holderKey, opts("did:x:unknown"))
		require.NoError(t, err)

		valid, err := NewVerifier(counting).VerifyDocumentProof(context.Background(), doc)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Equal(t, 0, counting.callCount("did:x:unknown"))
	})

	t.Run("missing proof", func(t *testing.T) {
		_, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), securedDocument())
		assert.True(t, errors.Is(err, sdkerrors.ErrGuard))
	})

	t.Run("empty proof set", func(t *testing.T) {
		doc := securedDocument()
		doc["proof"] = []interface{}{}

		_, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
		assert.True(t, errors.Is(err, sdkerrors.ErrDecode))
	})

	t.Run("verificationMethod is not did#fragment", func(t *testing.T) {
		for _, vm := range []string{"", "did:x:issuer", "https://example.com/keys/1", "#key-1"} {
			doc := securedDocument()
			doc["proof"] = map[string]interface{}{
				"type":               sdkcrypto.ProofTypeDataIntegrity,
				"cryptosuite":        sdkcrypto.SuiteEdDSAJCS2022,
				"verificationMethod": vm,
				"proofValue":         "z3FXQ",
			}

			_, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
			assert.True(t, errors.Is(err, sdkerrors.ErrGuard), "verificationMethod %q: %v", vm, err)
		}
	})

	t.Run("unknown DID", func(t *testing.T) {
		doc, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, issuerKey, opts("did:x:unknown"))
		require.NoError(t, err)

		_, err = NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
		assert.True(t, sdkerrors.IsNotFound(err))
	})

	t.Run("unsupported cryptosuite", func(t *testing.T) {
		doc := securedDocument()
		doc["proof"] = map[string]interface{}{
			"type":               "Ed25519Signature2020",
			"verificationMethod": issuerDID + "#key-1",
			"proofValue":         "z3FXQ",
		}

		_, err := NewVerifier(resolver).VerifyDocumentProof(context.Background(), doc)
		assert.True(t, errors.Is(err, sdkerrors.ErrDecode))
	})
}

func TestVerifyDocumentProofBy(t *testing.T) {
	issuerKey := newEd25519Key(t)
	malloryKey := newEd25519Key(t)

	resolver := newMockResolver()
	resolver.addIdentity(t, issuerDID, issuerKey, "")
	resolver.addIdentity(t, "did:x:mallory", malloryKey, "")

	opts := func(did string) sdkcrypto.ProofOptions {
		return sdkcrypto.ProofOptions{VerificationMethod: did + "#key-1", Created: time.Now()}
	}

	signed, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, issuerKey, opts(issuerDID))
	require.NoError(t, err)

	valid, err := NewVerifier(resolver).VerifyDocumentProofBy(context.Background(), signed, issuerDID)
	require.NoError(t, err)
	assert.True(t, valid)

	t.Run("signed with another DID's key", func(t *testing.T) {
		counting := newMockResolver()
		counting.addIdentity(t, "did:x:mallory", malloryKey, "")

		forged, err := AddProof(securedDocument(), sdkcrypto.SuiteEdDSAJCS2022, malloryKey, opts("did:x:mallory"))
		require.NoError(t, err)

		// The proof itself is valid for the signing DID.
		valid, err := NewVerifier(counting).VerifyDocumentProof(context.Background(), forged)
		require.NoError(t, err)
		assert.True(t, valid)

		valid, err = NewVerifier(counting).VerifyDocumentProofBy(context.Background(), forged, issuerDID)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Equal(t, 1, counting.callCount("did:x:mallory"))
	})

	t.Run("one proof of a set by another DID", func(t *testing.T) {
		doc, err := AddProof(signed, sdkcrypto.SuiteEdDSAJCS2022, malloryKey, opts("did:x:mallory"))
		require.NoError(t, err)

		valid, err := NewVerifier(resolver).VerifyDocumentProofBy(context.Background(), doc, issuerDID)
		require.NoError(t, err)
		assert.False(t, valid)
	})

	t.Run("no signer", func(t *testing.T) {
		_, err := NewVerifier(resolver).VerifyDocumentProofBy(context.Background(), signed, "")
		assert.True(t, errors.Is(err, sdkerrors.ErrGuard))
	})

	t.Run("missing proof", func(t *testing.T) {
		_, err := NewVerifier(resolver).VerifyDocumentProofBy(context.Background(), securedDocument(), issuerDID)
		assert.True(t, errors.Is(err, sdkerrors.ErrGuard))
	})
}

func TestAddProof(t *testing.T) {
	key := newEd25519Key(t)

	_, err := AddProof(securedDocument(), "unknown-suite", key,
		sdkcrypto.ProofOptions{VerificationMethod: issuerDID + "#key-1"})
	assert.Error(t, err)

	doc := securedDocument()
	doc["proof"] = "invalid"

	_, err = AddProof(doc, sdkcrypto.SuiteEdDSAJCS2022, key, sdkcrypto.ProofOptions{VerificationMethod: issuerDID + "#key-1"})
	assert.Error(t, err)

	original := securedDocument()
	secured, err := AddProof(original, sdkcrypto.SuiteEdDSAJCS2022, key,
		sdkcrypto.ProofOptions{VerificationMethod: issuerDID + "#key-1"})
	require.NoError(t, err)
	assert.NotContains(t, original, "proof")
	assert.Contains(t, secured, "proof")
}
