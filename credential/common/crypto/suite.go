package crypto

import (
	"crypto"
	"crypto/sha256"
	"fmt"
	"maps"
	"time"

	"github.com/multiformats/go-multibase"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/schema"
)

// ProofTypeDataIntegrity is the proof type shared by the data integrity cryptosuites.
const ProofTypeDataIntegrity = "DataIntegrityProof"

// Supported cryptosuites.
const (
	SuiteEdDSAJCS2022  = "eddsa-jcs-2022"
	SuiteEdDSARDFC2022 = "eddsa-rdfc-2022"
	SuiteECDSAJCS2019  = "ecdsa-jcs-2019"
	SuiteECDSARDFC2019 = "ecdsa-rdfc-2019"
)

// DefaultProofPurpose is used when ProofOptions leaves the purpose empty.
const DefaultProofPurpose = "assertionMethod"

// ProofOptions configures CreateProof.
type ProofOptions struct {
	VerificationMethod string
	ProofPurpose       string
	Created            time.Time
	Challenge          string
	Domain             string
}

// Suite creates and verifies data integrity proofs for one cryptosuite.
type Suite interface {
	Name() string
	CreateProof(doc map[string]interface{}, priv crypto.PrivateKey, opts ProofOptions) (*model.Proof, error)
	VerifyProof(doc map[string]interface{}, proof *model.Proof, jwk *model.JWK) error
	// SigningInput returns the bytes Sign is called with for proof over doc.
	// proof must carry every option except proofValue.
	SigningInput(doc map[string]interface{}, proof *model.Proof) ([]byte, error)
}

type canonicalizer func(map[string]interface{}) ([]byte, error)

type dataIntegritySuite struct {
	name         string
	keyType      string
	rdf          bool
	canonicalize canonicalizer
}

var suites = map[string]*dataIntegritySuite{
	SuiteEdDSAJCS2022:  {name: SuiteEdDSAJCS2022, keyType: KeyTypeOKP, canonicalize: jcsCanonicalize},
	SuiteEdDSARDFC2022: {name: SuiteEdDSARDFC2022, keyType: KeyTypeOKP, rdf: true, canonicalize: rdfCanonicalize},
	SuiteECDSAJCS2019:  {name: SuiteECDSAJCS2019, keyType: KeyTypeEC, canonicalize: jcsCanonicalize},
	SuiteECDSARDFC2019: {name: SuiteECDSARDFC2019, keyType: KeyTypeEC, rdf: true, canonicalize: rdfCanonicalize},
}

// SuiteFor returns the cryptosuite with the given name.
func SuiteFor(name string) (Suite, error) {
	s, ok := suites[name]
	if !ok {
		return nil, fmt.Errorf("unsupported cryptosuite %q", name)
	}

	return s, nil
}

func (s *dataIntegritySuite) Name() string {
	return s.name
}

// CreateProof signs doc and returns the resulting proof. doc itself is not modified.
func (s *dataIntegritySuite) CreateProof(doc map[string]interface{}, priv crypto.PrivateKey,
	opts ProofOptions) (*model.Proof, error) {
	if opts.VerificationMethod == "" {
		return nil, fmt.Errorf("verificationMethod is required")
	}

	pub, err := PublicKey(priv)
	if err != nil {
		return nil, err
	}

	jwk, err := JWKFromPublicKey(pub)
	if err != nil {
		return nil, err
	}

	if jwk.Kty != s.keyType {
		return nil, fmt.Errorf("cryptosuite %s does not support %s keys", s.name, jwk.Kty)
	}

	created := opts.Created
	if created.IsZero() {
		created = time.Now()
	}

	purpose := opts.ProofPurpose
	if purpose == "" {
		purpose = DefaultProofPurpose
	}

	proof := &model.Proof{
		Type:               ProofTypeDataIntegrity,
		Cryptosuite:        s.name,
		Created:            created.UTC().Format(time.RFC3339),
		VerificationMethod: opts.VerificationMethod,
		ProofPurpose:       purpose,
		Challenge:          opts.Challenge,
		Domain:             opts.Domain,
	}

	hashData, err := s.hashData(doc, proof)
	if err != nil {
		return nil, err
	}

	sig, err := Sign(priv, hashData)
	if err != nil {
		return nil, err
	}

	proof.ProofValue, err = multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proofValue: %w", err)
	}

	return proof, nil
}

func (s *dataIntegritySuite) SigningInput(doc map[string]interface{}, proof *model.Proof) ([]byte, error) {
	if proof == nil || proof.Cryptosuite != s.name {
		return nil, fmt.Errorf("proof options must name cryptosuite %s", s.name)
	}

	return s.hashData(doc, proof)
}

// VerifyProof checks proof over doc with the key described by jwk. It returns
// ErrInvalidSignature when the signature does not match.
func (s *dataIntegritySuite) VerifyProof(doc map[string]interface{}, proof *model.Proof, jwk *model.JWK) error {
	if proof.Type != ProofTypeDataIntegrity {
		return fmt.Errorf("unsupported proof type %q", proof.Type)
	}

	if proof.Cryptosuite != s.name {
		return fmt.Errorf("proof cryptosuite %q does not match %s", proof.Cryptosuite, s.name)
	}

	if jwk == nil || jwk.Kty != s.keyType {
		return fmt.Errorf("cryptosuite %s requires a %s key", s.name, s.keyType)
	}

	pub, err := PublicKeyFromJWK(jwk)
	if err != nil {
		return err
	}

	_, sig, err := multibase.Decode(proof.ProofValue)
	if err != nil {
		return fmt.Errorf("invalid proofValue: %w", err)
	}

	hashData, err := s.hashData(doc, proof)
	if err != nil {
		return err
	}

	return Verify(pub, hashData, sig)
}

// hashData is SHA-256(canonical proof options) || SHA-256(canonical document
// without its proof).
func (s *dataIntegritySuite) hashData(doc map[string]interface{}, proof *model.Proof) ([]byte, error) {
	unsecured := make(map[string]interface{}, len(doc))
	maps.Copy(unsecured, doc)
	delete(unsecured, "proof")

	proofConfig := proof.Config()
	if s.rdf {
		if ctx, ok := doc[model.FieldContext]; ok {
			proofConfig[model.FieldContext] = ctx
		}
	}

	canonicalConfig, err := s.canonicalize(proofConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize proof options: %w", err)
	}

	canonicalDoc, err := s.canonicalize(unsecured)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	configHash := sha256.Sum256(canonicalConfig)
	docHash := sha256.Sum256(canonicalDoc)

	return append(configHash[:], docHash[:]...), nil
}

func jcsCanonicalize(doc map[string]interface{}) ([]byte, error) {
	return schema.CanonicalizeJSON(doc)
}

func rdfCanonicalize(doc map[string]interface{}) ([]byte, error) {
	return schema.CanonicalizeDocument(doc)
}

// DefaultSuiteName returns the JCS cryptosuite matching the type of priv:
// eddsa-jcs-2022 for Ed25519 keys and ecdsa-jcs-2019 for EC keys.
func DefaultSuiteName(priv crypto.PrivateKey) (string, error) {
	pub, err := PublicKey(priv)
	if err != nil {
		return "", err
	}

	jwk, err := JWKFromPublicKey(pub)
	if err != nil {
		return "", err
	}

	if jwk.Kty == KeyTypeOKP {
		return SuiteEdDSAJCS2022, nil
	}

	return SuiteECDSAJCS2019, nil
}
