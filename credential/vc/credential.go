package vc

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	credentialstatus "github.com/pilacorp/go-identity-sdk/credential/common/credential-status"
	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
	"github.com/pilacorp/go-identity-sdk/credential/common/schema"
)

// Credential is a verifiable credential secured either as a JWT or with
// embedded data integrity proofs.
type Credential interface {
	// AddProof signs the credential with the issuer's key.
	AddProof(priv crypto.PrivateKey, opts ...CredentialOpt) error

	// GetSigningInput returns the bytes an external signer signs.
	GetSigningInput() ([]byte, error)
	// AddCustomProof attaches a proof produced from GetSigningInput.
	AddCustomProof(proof *model.Proof) error

	// Verify verifies the credential signature against the issuer's DID document.
	Verify(ctx context.Context, opts ...CredentialOpt) error

	// Serialize returns the credential in its native format
	// - For JWT credentials: returns the JWT string
	// - For embedded credentials: returns the JSON object with proof
	Serialize() (interface{}, error)

	GetContents() ([]byte, error)

	GetType() string
}

// CredentialData represents credential data in JSON format (suitable for both JWT and JSON credentials).
type CredentialData map[string]interface{}

// CredentialContents represents the structured contents of a Credential.
type CredentialContents struct {
	Context          []interface{} // JSON-LD contexts
	ID               string        // Credential identifier
	Types            []string      // Credential types
	Issuer           string        // Issuer identifier
	ValidFrom        time.Time     // Issuance date
	ValidUntil       time.Time     // Expiration date
	CredentialStatus []Status      // Credential status entries
	Subject          []Subject     // Credential subjects
	Schemas          []Schema      // Credential schemas
}

// Status represents the credentialStatus field. A status points either at
// the issuer's #revocation service (RevocationBitmapIndex) or at a status
// list credential (StatusListCredential and StatusListIndex).
type Status struct {
	ID                    string `json:"id,omitempty"`
	Type                  string `json:"type"`
	RevocationBitmapIndex string `json:"revocationBitmapIndex,omitempty"`
	StatusPurpose         string `json:"statusPurpose,omitempty"`
	StatusListIndex       string `json:"statusListIndex,omitempty"`
	StatusListCredential  string `json:"statusListCredential,omitempty"`
}

// NewRevocationStatus returns a status referring to bit index of the
// revocation service published in the issuer's DID document.
func NewRevocationStatus(issuer, serviceType string, index int) Status {
	if serviceType == "" {
		serviceType = credentialstatus.ServiceTypeBitstringStatusList
	}

	return Status{
		ID:                    document.RevocationServiceID(issuer),
		Type:                  serviceType,
		RevocationBitmapIndex: strconv.Itoa(index),
	}
}

// Subject represents the credentialSubject field.
type Subject struct {
	ID           string                 // Subject identifier
	CustomFields map[string]interface{} // Additional subject data
}

// Schema represents a credential schema with an ID and type.
type Schema struct {
	ID   string // Schema identifier
	Type string // Schema type
}

// CredentialOpt configures credential processing options.
type CredentialOpt func(*credentialOptions)

// credentialOptions holds configuration for credential processing.
type credentialOptions struct {
	isValidateSchema      bool
	schemaLoader          schema.Loader
	resolver              provider.Resolver
	verificationMethodKey string
	cryptosuite           string
	proofPurpose          string
}

// WithResolver sets the resolver used to fetch the issuer's DID document.
// Without it, the universal resolver from the environment configuration is used.
func WithResolver(resolver provider.Resolver) CredentialOpt {
	return func(c *credentialOptions) {
		c.resolver = resolver
	}
}

// WithVerificationMethodKey sets the verification method key (default: "key-1").
func WithVerificationMethodKey(key string) CredentialOpt {
	return func(c *credentialOptions) {
		c.verificationMethodKey = key
	}
}

// WithSchemaValidation enables schema validation.
func WithSchemaValidation() CredentialOpt {
	return func(c *credentialOptions) {
		c.isValidateSchema = true
	}
}

// WithSchemaLoader sets how credential schemas are loaded and enables schema validation.
func WithSchemaLoader(loader schema.Loader) CredentialOpt {
	return func(c *credentialOptions) {
		c.isValidateSchema = true
		c.schemaLoader = loader
	}
}

// WithCryptosuite sets the data integrity cryptosuite of embedded proofs.
func WithCryptosuite(cryptosuite string) CredentialOpt {
	return func(c *credentialOptions) {
		c.cryptosuite = cryptosuite
	}
}

// WithProofPurpose sets the purpose of embedded proofs (default: assertionMethod).
func WithProofPurpose(purpose string) CredentialOpt {
	return func(c *credentialOptions) {
		c.proofPurpose = purpose
	}
}

func getOptions(opts ...CredentialOpt) *credentialOptions {
	options := &credentialOptions{
		verificationMethodKey: "key-1",
		proofPurpose:          sdkcrypto.DefaultProofPurpose,
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

func (o *credentialOptions) getResolver() provider.Resolver {
	if o.resolver == nil {
		o.resolver = provider.NewHTTPResolver("")
	}

	return o.resolver
}

func (o *credentialOptions) verificationMethod(issuer string) string {
	return fmt.Sprintf("%s#%s", issuer, o.verificationMethodKey)
}

// ParseCredential parses a credential given as a JWT or as a JSON object.
func ParseCredential(rawCredential []byte, opts ...CredentialOpt) (Credential, error) {
	if len(rawCredential) == 0 {
		return nil, fmt.Errorf("JSON string is empty")
	}

	if isJSONCredential(rawCredential) {
		return ParseCredentialEmbedded(rawCredential, opts...)
	}

	// A JWT may arrive JSON-encoded as a string.
	valStr := strings.Trim(strings.TrimSpace(string(rawCredential)), `"`)
	if isJWTCredential(valStr) {
		return ParseCredentialJWT(valStr, opts...)
	}

	return nil, fmt.Errorf("failed to parse credential: not a valid JWT or embedded credential")
}

// ParseCredentialWithValidation parses a credential and validates it against its schemas.
func ParseCredentialWithValidation(rawCredential []byte, opts ...CredentialOpt) (Credential, error) {
	return ParseCredential(rawCredential, append(opts, WithSchemaValidation())...)
}

// ParseCredentialContents reads the structured contents of credential data.
func ParseCredentialContents(data CredentialData) (*CredentialContents, error) {
	contents := &CredentialContents{}

	parsers := []func(CredentialData, *CredentialContents) error{
		parseContext,
		parseID,
		parseTypes,
		parseIssuer,
		parseDates,
		parseSubject,
		parseSchema,
		parseStatus,
	}

	for _, parse := range parsers {
		if err := parse(data, contents); err != nil {
			return nil, err
		}
	}

	return contents, nil
}

func isJSONCredential(rawCredential []byte) bool {
	trimmed := strings.TrimSpace(string(rawCredential))
	return strings.HasPrefix(trimmed, "{") && json.Valid(rawCredential)
}

var jwtPattern = regexp.MustCompile(`^[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*$`)

func isJWTCredential(valStr string) bool {
	return jwtPattern.MatchString(valStr)
}
