package vp

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
)

// ProofPurposeAuthentication is the purpose of holder proofs.
const ProofPurposeAuthentication = "authentication"

// Presentation is a verifiable presentation secured either as a JWT or with
// embedded data integrity proofs.
type Presentation interface {
	// AddProof signs the presentation with the holder's key.
	AddProof(priv crypto.PrivateKey, opts ...PresentationOpt) error

	GetSigningInput() ([]byte, error)
	AddCustomProof(proof *model.Proof) error

	// Verify verifies the holder signature and, with WithVCValidation, every
	// embedded credential.
	Verify(ctx context.Context, opts ...PresentationOpt) error

	// Serialize returns the presentation in its native format
	// - For JWT presentations: returns the JWT string
	// - For embedded presentations: returns the JSON object with proof
	Serialize() (interface{}, error)

	GetContents() ([]byte, error)

	GetType() string
}

// PresentationData represents presentation data in JSON format.
type PresentationData map[string]interface{}

// PresentationContents represents the structured contents of a Presentation.
type PresentationContents struct {
	Context               []interface{}
	ID                    string
	Types                 []string
	Holder                string
	VerifiableCredentials []vc.Credential
}

// PresentationOpt configures presentation processing options.
type PresentationOpt func(*presentationOptions)

type presentationOptions struct {
	isValidateVC          bool
	resolver              provider.Resolver
	verificationMethodKey string
	cryptosuite           string
	challenge             string
	domain                string
}

// WithVCValidation verifies the embedded credentials along with the presentation.
func WithVCValidation() PresentationOpt {
	return func(p *presentationOptions) {
		p.isValidateVC = true
	}
}

// WithResolver sets the resolver used to fetch holder and issuer DID documents.
func WithResolver(resolver provider.Resolver) PresentationOpt {
	return func(p *presentationOptions) {
		p.resolver = resolver
	}
}

// WithVerificationMethodKey sets the holder's verification method key (default: "key-1").
func WithVerificationMethodKey(key string) PresentationOpt {
	return func(p *presentationOptions) {
		p.verificationMethodKey = key
	}
}

// WithCryptosuite sets the data integrity cryptosuite of embedded proofs.
func WithCryptosuite(cryptosuite string) PresentationOpt {
	return func(p *presentationOptions) {
		p.cryptosuite = cryptosuite
	}
}

// WithChallenge binds the holder proof to a verifier nonce. JWT
// presentations carry it as the nonce claim.
func WithChallenge(challenge string) PresentationOpt {
	return func(p *presentationOptions) {
		p.challenge = challenge
	}
}

// WithDomain binds the holder proof to a verifier domain. JWT presentations
// carry it as the aud claim.
func WithDomain(domain string) PresentationOpt {
	return func(p *presentationOptions) {
		p.domain = domain
	}
}

func getOptions(opts ...PresentationOpt) *presentationOptions {
	options := &presentationOptions{
		verificationMethodKey: "key-1",
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

func (o *presentationOptions) getResolver() provider.Resolver {
	if o.resolver == nil {
		o.resolver = provider.NewHTTPResolver("")
	}

	return o.resolver
}

func (o *presentationOptions) verificationMethod(holder string) string {
	return fmt.Sprintf("%s#%s", holder, o.verificationMethodKey)
}

// ParsePresentation parses a presentation given as a JWT or as a JSON object.
func ParsePresentation(rawPresentation []byte, opts ...PresentationOpt) (Presentation, error) {
	if len(rawPresentation) == 0 {
		return nil, fmt.Errorf("presentation is empty")
	}

	if isJSONPresentation(rawPresentation) {
		return ParsePresentationEmbedded(rawPresentation, opts...)
	}

	valStr := strings.Trim(strings.TrimSpace(string(rawPresentation)), `"`)
	if isJWTPresentation(valStr) {
		return ParsePresentationJWT(valStr, opts...)
	}

	return nil, fmt.Errorf("failed to parse presentation: not a valid JWT or embedded presentation")
}

// ParsePresentationContents reads the structured contents of presentation
// data. Embedded credentials are parsed, not verified.
func ParsePresentationContents(data PresentationData) (*PresentationContents, error) {
	contents := &PresentationContents{}

	parsers := []func(PresentationData, *PresentationContents) error{
		parseContext,
		parseID,
		parseTypes,
		parseHolder,
		parseVerifiableCredentials,
	}

	for _, parse := range parsers {
		if err := parse(data, contents); err != nil {
			return nil, fmt.Errorf("failed to parse presentation contents: %w", err)
		}
	}

	return contents, nil
}

func isJSONPresentation(rawPresentation []byte) bool {
	trimmed := strings.TrimSpace(string(rawPresentation))
	return strings.HasPrefix(trimmed, "{") && json.Valid(rawPresentation)
}

var jwtPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*$`)

func isJWTPresentation(valStr string) bool {
	return jwtPattern.MatchString(valStr)
}
