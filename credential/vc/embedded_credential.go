package vc

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"time"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/proof"
	"github.com/pilacorp/go-identity-sdk/credential/common/util"
)

// EmbeddedCredential is a credential secured with data integrity proofs
// embedded in the document.
type EmbeddedCredential struct {
	credential CredentialData
	pending    *model.Proof
	options    *credentialOptions
}

// NewEmbeddedCredential builds an unsigned embedded credential.
func NewEmbeddedCredential(vcc CredentialContents, opts ...CredentialOpt) (Credential, error) {
	options := getOptions(opts...)

	m, err := serializeCredentialContents(&vcc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credential contents: %w", err)
	}

	if err := validateCredential(m, options); err != nil {
		return nil, err
	}

	return &EmbeddedCredential{credential: m, options: options}, nil
}

// ParseCredentialEmbedded parses a JSON credential without verifying its proofs.
func ParseCredentialEmbedded(rawCredential []byte, opts ...CredentialOpt) (Credential, error) {
	if len(rawCredential) == 0 {
		return nil, fmt.Errorf("JSON string is empty")
	}

	options := getOptions(opts...)

	var m CredentialData
	if err := json.Unmarshal(rawCredential, &m); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", fmt.Errorf("failed to unmarshal credential: %w", err))
	}

	if err := validateCredential(m, options); err != nil {
		return nil, err
	}

	return &EmbeddedCredential{credential: m, options: options}, nil
}

// AddProof signs the credential and appends the proof to any it already has.
// The cryptosuite defaults to eddsa-jcs-2022 for Ed25519 keys and
// ecdsa-jcs-2019 otherwise.
func (e *EmbeddedCredential) AddProof(priv crypto.PrivateKey, opts ...CredentialOpt) error {
	options := e.options
	if len(opts) > 0 {
		options = getOptions(opts...)
	}

	cryptosuite := options.cryptosuite
	if cryptosuite == "" {
		var err error
		if cryptosuite, err = sdkcrypto.DefaultSuiteName(priv); err != nil {
			return err
		}
	}

	secured, err := proof.AddProof(e.credential, cryptosuite, priv, sdkcrypto.ProofOptions{
		VerificationMethod: options.verificationMethod(e.issuer()),
		ProofPurpose:       options.proofPurpose,
	})
	if err != nil {
		return fmt.Errorf("failed to add proof: %w", err)
	}

	e.credential = secured

	return nil
}

// GetSigningInput returns the data integrity hash an external signer signs.
// The proof options are fixed here and reused by AddCustomProof.
func (e *EmbeddedCredential) GetSigningInput() ([]byte, error) {
	cryptosuite := e.options.cryptosuite
	if cryptosuite == "" {
		cryptosuite = sdkcrypto.SuiteECDSAJCS2019
	}

	suite, err := sdkcrypto.SuiteFor(cryptosuite)
	if err != nil {
		return nil, err
	}

	pending := &model.Proof{
		Type:               sdkcrypto.ProofTypeDataIntegrity,
		Cryptosuite:        cryptosuite,
		Created:            time.Now().UTC().Format(time.RFC3339),
		VerificationMethod: e.options.verificationMethod(e.issuer()),
		ProofPurpose:       e.options.proofPurpose,
	}

	_, unsecured := util.SplitJSONObj(e.credential, "proof")

	input, err := suite.SigningInput(unsecured, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing input: %w", err)
	}

	e.pending = pending

	return input, nil
}

// AddCustomProof attaches a proof signed outside the SDK. A proof carrying
// only proofValue takes its options from the last GetSigningInput call.
func (e *EmbeddedCredential) AddCustomProof(p *model.Proof) error {
	if p == nil {
		return fmt.Errorf("proof cannot be nil")
	}

	if p.Type == "" {
		if e.pending == nil {
			return fmt.Errorf("proof has no options and GetSigningInput was not called")
		}

		filled := *e.pending
		filled.ProofValue = p.ProofValue
		p = &filled
	}

	secured, err := proof.AttachProof(e.credential, p)
	if err != nil {
		return err
	}

	e.credential = secured
	e.pending = nil

	return nil
}

// Verify verifies every embedded proof, each of which must be made with a key
// of the credential issuer, and validates the credential schema when requested.
func (e *EmbeddedCredential) Verify(ctx context.Context, opts ...CredentialOpt) error {
	options := getOptions(opts...)

	valid, err := proof.NewVerifier(options.getResolver()).VerifyDocumentProofBy(ctx, e.credential, e.issuer())
	if err != nil {
		return err
	}

	if !valid {
		return sdkerrors.Newf(sdkerrors.ErrSignatureInvalid, "credential proof is invalid")
	}

	return validateCredential(e.credential, options)
}

// Serialize returns the secured credential object.
func (e *EmbeddedCredential) Serialize() (interface{}, error) {
	if _, ok := e.credential["proof"]; !ok {
		return nil, fmt.Errorf("credential must have a proof to serialize")
	}

	return map[string]interface{}(e.credential), nil
}

// GetContents returns the credential, proofs included, as JSON.
func (e *EmbeddedCredential) GetContents() ([]byte, error) {
	return json.Marshal(e.credential)
}

func (e *EmbeddedCredential) GetType() string {
	return "Embedded"
}

func (e *EmbeddedCredential) issuer() string {
	return credentialIssuer(e.credential)
}

func credentialIssuer(data CredentialData) string {
	contents := &CredentialContents{}
	if err := parseIssuer(data, contents); err != nil {
		return ""
	}

	return contents.Issuer
}
