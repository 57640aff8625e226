package vp

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

// EmbeddedPresentation is a presentation secured with a data integrity
// proof made by the holder.
type EmbeddedPresentation struct {
	presentation PresentationData
	pending      *model.Proof
	options      *presentationOptions
}

// NewEmbeddedPresentation builds an unsigned embedded presentation.
func NewEmbeddedPresentation(vpc PresentationContents, opts ...PresentationOpt) (Presentation, error) {
	m, err := serializePresentationContents(&vpc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize presentation contents: %w", err)
	}

	return &EmbeddedPresentation{presentation: m, options: getOptions(opts...)}, nil
}

// ParsePresentationEmbedded parses a JSON presentation without verifying it.
func ParsePresentationEmbedded(rawJSON []byte, opts ...PresentationOpt) (Presentation, error) {
	if len(rawJSON) == 0 {
		return nil, fmt.Errorf("JSON string is empty")
	}

	var m PresentationData
	if err := json.Unmarshal(rawJSON, &m); err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", fmt.Errorf("failed to unmarshal presentation: %w", err))
	}

	return &EmbeddedPresentation{presentation: m, options: getOptions(opts...)}, nil
}

// AddProof signs the presentation with the holder's key for authentication.
func (e *EmbeddedPresentation) AddProof(priv crypto.PrivateKey, opts ...PresentationOpt) error {
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

	secured, err := proof.AddProof(e.presentation, cryptosuite, priv, sdkcrypto.ProofOptions{
		VerificationMethod: options.verificationMethod(e.holder()),
		ProofPurpose:       ProofPurposeAuthentication,
		Challenge:          options.challenge,
		Domain:             options.domain,
	})
	if err != nil {
		return fmt.Errorf("failed to add proof: %w", err)
	}

	e.presentation = secured

	return nil
}

// GetSigningInput returns the data integrity hash an external signer signs.
func (e *EmbeddedPresentation) GetSigningInput() ([]byte, error) {
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
		VerificationMethod: e.options.verificationMethod(e.holder()),
		ProofPurpose:       ProofPurposeAuthentication,
		Challenge:          e.options.challenge,
		Domain:             e.options.domain,
	}

	_, unsecured := util.SplitJSONObj(e.presentation, "proof")

	input, err := suite.SigningInput(unsecured, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to build signing input: %w", err)
	}

	e.pending = pending

	return input, nil
}

// AddCustomProof attaches a proof signed outside the SDK. A proof carrying
// only proofValue takes its options from the last GetSigningInput call.
func (e *EmbeddedPresentation) AddCustomProof(p *model.Proof) error {
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

	secured, err := proof.AttachProof(e.presentation, p)
	if err != nil {
		return err
	}

	e.presentation = secured
	e.pending = nil

	return nil
}

// Verify verifies the holder proofs, each of which must be made with a key of
// the holder. With WithChallenge or WithDomain every proof must carry the
// same values.
func (e *EmbeddedPresentation) Verify(ctx context.Context, opts ...PresentationOpt) error {
	options := getOptions(opts...)

	if options.challenge != "" || options.domain != "" {
		proofs, err := model.ParseProofs(e.presentation["proof"])
		if err != nil {
			return sdkerrors.Wrap(sdkerrors.ErrGuard, "", "", err)
		}

		for _, p := range proofs {
			if options.challenge != "" && p.Challenge != options.challenge {
				return sdkerrors.Newf(sdkerrors.ErrGuard, "proof challenge does not match")
			}
			if options.domain != "" && p.Domain != options.domain {
				return sdkerrors.Newf(sdkerrors.ErrGuard, "proof domain does not match")
			}
		}
	}

	valid, err := proof.NewVerifier(options.getResolver()).VerifyDocumentProofBy(ctx, e.presentation, e.holder())
	if err != nil {
		return err
	}

	if !valid {
		return sdkerrors.Newf(sdkerrors.ErrSignatureInvalid, "presentation proof is invalid")
	}

	if options.isValidateVC {
		return verifyCredentials(ctx, e.presentation, options)
	}

	return nil
}

// Serialize returns the secured presentation object.
func (e *EmbeddedPresentation) Serialize() (interface{}, error) {
	if _, ok := e.presentation["proof"]; !ok {
		return nil, fmt.Errorf("presentation must have proof before serialization")
	}

	return map[string]interface{}(e.presentation), nil
}

// GetContents returns the presentation, proofs included, as JSON.
func (e *EmbeddedPresentation) GetContents() ([]byte, error) {
	return json.Marshal(e.presentation)
}

func (e *EmbeddedPresentation) GetType() string {
	return "Embedded"
}

func (e *EmbeddedPresentation) holder() string {
	return presentationHolder(e.presentation)
}

func presentationHolder(data PresentationData) string {
	contents := &PresentationContents{}
	if err := parseHolder(data, contents); err != nil {
		return ""
	}

	return contents.Holder
}
