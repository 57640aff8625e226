// Package verifier checks credentials and presentations end to end: issuer
// signature first, then revocation state.
//
// Revocation is only read for credentials whose signature verifies. A
// credential that declares a status its issuer does not publish is reported
// with StatusUnavailable set, or rejected with ErrRevocationStatusUnavailable
// when the Verifier is fail-closed.
package verifier

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/trustbloc/logutil-go/pkg/log"

	credentialstatus "github.com/pilacorp/go-identity-sdk/credential/common/credential-status"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	sdkjwt "github.com/pilacorp/go-identity-sdk/credential/common/jwt"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/proof"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
	"github.com/pilacorp/go-identity-sdk/credential/common/schema"
	"github.com/pilacorp/go-identity-sdk/credential/revocation"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("credential-verifier")

// JWT claims carrying the credential and presentation bodies.
const (
	ClaimVC = "vc"
	ClaimVP = "vp"
)

// Verifier checks credentials and presentations. It is safe for concurrent use.
type Verifier struct {
	resolver     provider.Resolver
	proofs       *proof.Verifier
	revocation   *revocation.Manager
	statusClient *credentialstatus.Client

	capacity         int
	failClosed       bool
	schemaValidation bool
	schemaLoader     schema.Loader
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithCapacity sets the revocation bitstring capacity issuers publish.
func WithCapacity(capacity int) Option {
	return func(v *Verifier) {
		v.capacity = capacity
	}
}

// WithFailClosed makes a declared but unpublished status an error instead of a flag.
func WithFailClosed() Option {
	return func(v *Verifier) {
		v.failClosed = true
	}
}

// WithSchemaValidation validates credentials against their credentialSchema.
func WithSchemaValidation() Option {
	return func(v *Verifier) {
		v.schemaValidation = true
	}
}

// WithSchemaLoader sets how credential schemas are loaded and enables schema validation.
func WithSchemaLoader(loader schema.Loader) Option {
	return func(v *Verifier) {
		v.schemaValidation = true
		v.schemaLoader = loader
	}
}

// WithProofVerifier replaces the signature verifier built from the resolver.
func WithProofVerifier(p *proof.Verifier) Option {
	return func(v *Verifier) {
		v.proofs = p
	}
}

// WithStatusClient sets the client used for status list credentials.
func WithStatusClient(c *credentialstatus.Client) Option {
	return func(v *Verifier) {
		v.statusClient = c
	}
}

// New returns a Verifier resolving DID documents with resolver.
func New(resolver provider.Resolver, opts ...Option) *Verifier {
	v := &Verifier{
		resolver: resolver,
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.proofs == nil {
		v.proofs = proof.NewVerifier(resolver)
	}

	if v.statusClient == nil {
		v.statusClient = credentialstatus.NewClient()
	}

	var revocationOpts []revocation.Option
	if v.capacity > 0 {
		revocationOpts = append(revocationOpts, revocation.WithCapacity(v.capacity))
	}

	v.revocation = revocation.NewManager(revocationOpts...)

	return v
}

// CredentialResult is the outcome of checking one credential.
// Verified and Revoked are independent: a credential may be both.
type CredentialResult struct {
	Verified bool
	Revoked  bool
	// StatusUnavailable is set when the credential declares a status that
	// could not be read. Revoked is false in that case.
	StatusUnavailable bool
	Credential        map[string]interface{}
	Issuer            string
}

// PresentationResult is the outcome of checking a presentation and the
// credentials it embeds.
type PresentationResult struct {
	// Verified is true if the holder signature and every credential signature verify.
	Verified bool
	// Revoked is true if any embedded credential is revoked.
	Revoked           bool
	StatusUnavailable bool
	Presentation      map[string]interface{}
	Holder            string
	Issuers           []string
	Credentials       []*CredentialResult
}

// CheckCredential verifies a JWT credential and reads its revocation state.
// An issuer in the vc claim must equal the iss claim.
func (v *Verifier) CheckCredential(ctx context.Context, token string) (*CredentialResult, error) {
	_, payload, err := sdkjwt.Decode(token)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	credential, err := claimObject(payload, ClaimVC)
	if err != nil {
		return nil, err
	}

	iss, _ := payload["iss"].(string)

	result := &CredentialResult{
		Credential: credential,
		Issuer:     iss,
	}

	if issuer := issuerID(credential["issuer"]); issuer != "" && issuer != iss {
		logger.Info("Credential issuer does not match the JWT issuer", logfields.WithDID(iss))

		return result, nil
	}

	verified, err := v.proofs.VerifyJWT(ctx, token)
	if err != nil {
		if sdkerrors.IsSignatureInvalid(err) {
			logger.Info("Credential signature is invalid", logfields.WithDID(iss), log.WithError(err))

			return result, nil
		}

		return nil, err
	}

	result.Verified = true

	if err := v.checkCredentialBody(ctx, result, verified.Document); err != nil {
		return nil, err
	}

	return result, nil
}

// CheckPresentation verifies a JWT presentation and every credential it embeds.
// Embedded credentials are JWT strings or objects secured with data integrity
// proofs. Credentials are not evaluated when the holder signature is invalid.
func (v *Verifier) CheckPresentation(ctx context.Context, token string) (*PresentationResult, error) {
	_, payload, err := sdkjwt.Decode(token)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	presentation, err := claimObject(payload, ClaimVP)
	if err != nil {
		return nil, err
	}

	holder, _ := payload["iss"].(string)

	result := &PresentationResult{
		Presentation: presentation,
		Holder:       holder,
	}

	if h := issuerID(presentation["holder"]); h != "" && h != holder {
		logger.Info("Presentation holder does not match the JWT issuer", logfields.WithDID(holder))

		return result, nil
	}

	if _, err := v.proofs.VerifyJWT(ctx, token); err != nil {
		if sdkerrors.IsSignatureInvalid(err) {
			logger.Info("Presentation signature is invalid", logfields.WithDID(holder), log.WithError(err))

			return result, nil
		}

		return nil, err
	}

	credentials, err := embeddedCredentials(presentation["verifiableCredential"])
	if err != nil {
		return nil, err
	}

	result.Verified = true

	for i, embedded := range credentials {
		var (
			credentialResult *CredentialResult
			err              error
		)

		switch c := embedded.(type) {
		case string:
			credentialResult, err = v.CheckCredential(ctx, c)
		case map[string]interface{}:
			credentialResult, err = v.checkSecuredCredential(ctx, c)
		}

		if err != nil {
			return nil, fmt.Errorf("failed to check credential %d: %w", i, err)
		}

		result.Credentials = append(result.Credentials, credentialResult)
		result.Verified = result.Verified && credentialResult.Verified
		result.Revoked = result.Revoked || credentialResult.Revoked
		result.StatusUnavailable = result.StatusUnavailable || credentialResult.StatusUnavailable

		if credentialResult.Issuer != "" && !slices.Contains(result.Issuers, credentialResult.Issuer) {
			result.Issuers = append(result.Issuers, credentialResult.Issuer)
		}
	}

	logger.Debug("Checked presentation", logfields.WithDID(holder), logfields.WithProofCount(len(credentials)))

	return result, nil
}

// checkSecuredCredential checks an inline credential carrying its own proofs.
// Every proof must be made with a key of the credential issuer.
func (v *Verifier) checkSecuredCredential(ctx context.Context, credential map[string]interface{}) (*CredentialResult, error) {
	result := &CredentialResult{
		Credential: credential,
		Issuer:     issuerID(credential["issuer"]),
	}

	valid, err := v.proofs.VerifyDocumentProofBy(ctx, credential, result.Issuer)
	if err != nil {
		return nil, err
	}

	if !valid {
		logger.Info("Embedded credential proof is invalid", logfields.WithDID(result.Issuer))

		return result, nil
	}

	result.Verified = true

	if err := v.checkCredentialBody(ctx, result, nil); err != nil {
		return nil, err
	}

	return result, nil
}

// checkCredentialBody validates the schema of a verified credential and reads
// its revocation status. issuerDoc is reused when the status is published by
// the issuer.
func (v *Verifier) checkCredentialBody(ctx context.Context, result *CredentialResult,
	issuerDoc *model.DIDDocument) error {
	if v.schemaValidation {
		if err := schema.ValidateCredential(result.Credential, v.schemaLoader); err != nil {
			return err
		}
	}

	status, err := credentialstatus.ParseStatus(result.Credential["credentialStatus"])
	if err != nil {
		return err
	}

	if status == nil {
		return nil
	}

	var revoked bool

	if status.StatusList() {
		revoked, err = v.statusClient.CheckStatus(ctx, status)
	} else {
		revoked, err = v.checkRevocationService(ctx, status, result.Issuer, issuerDoc)
	}

	if err != nil {
		if !errors.Is(err, sdkerrors.ErrRevocationStatusUnavailable) || v.failClosed {
			return err
		}

		logger.Warn("Revocation status is unavailable", logfields.WithDID(result.Issuer),
			logfields.WithServiceID(status.ID), log.WithError(err))

		result.StatusUnavailable = true

		return nil
	}

	result.Revoked = revoked

	logger.Debug("Read revocation status", logfields.WithDID(result.Issuer), logfields.WithServiceID(status.ID),
		logfields.WithRevoked(revoked))

	return nil
}

func (v *Verifier) checkRevocationService(ctx context.Context, status *credentialstatus.Status, issuer string,
	issuerDoc *model.DIDDocument) (bool, error) {
	did := status.DID()
	if did == "" {
		return false, sdkerrors.Newf(sdkerrors.ErrGuard, "credentialStatus id is missing")
	}

	doc := issuerDoc
	if doc == nil || did != issuer {
		var err error

		doc, err = v.resolver.Resolve(ctx, did)
		if err != nil {
			return false, err
		}
	}

	serviceType, err := v.revocation.ServiceType(doc)
	if err != nil {
		return false, revocationServiceError(did, err)
	}

	if !status.MatchesService(serviceType) {
		return false, sdkerrors.Wrap(sdkerrors.ErrRevocationStatusUnavailable, "", document.RevocationServiceID(did),
			fmt.Errorf("credentialStatus type %q does not refer to a %s service", status.Type, serviceType))
	}

	revoked, err := v.revocation.IsRevoked(doc, status.RevocationBitmapIndex)
	if err != nil {
		return false, revocationServiceError(did, err)
	}

	return revoked, nil
}

func revocationServiceError(did string, err error) error {
	if sdkerrors.CodeOf(err) == sdkerrors.CodeRevocationServiceNotFound {
		return sdkerrors.Wrap(sdkerrors.ErrRevocationStatusUnavailable, "", document.RevocationServiceID(did), err)
	}

	return err
}

func claimObject(payload map[string]interface{}, claim string) (map[string]interface{}, error) {
	raw, ok := payload[claim]
	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "JWT payload has no %s claim", claim)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "%s claim must be an object, got %T", claim, raw)
	}

	return obj, nil
}

// embeddedCredentials normalizes verifiableCredential to a slice of JWT strings and objects.
func embeddedCredentials(raw interface{}) ([]interface{}, error) {
	var items []interface{}

	switch c := raw.(type) {
	case nil:
		return nil, nil
	case string, map[string]interface{}:
		items = []interface{}{c}
	case []interface{}:
		items = c
	default:
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "invalid verifiableCredential format: %T", raw)
	}

	for i, item := range items {
		switch item.(type) {
		case string, map[string]interface{}:
		default:
			return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "verifiableCredential %d: unsupported format %T", i, item)
		}
	}

	return items, nil
}

// issuerID reads an issuer given as a string or as an object with an id.
func issuerID(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case map[string]interface{}:
		id, _ := v["id"].(string)
		return id
	default:
		return ""
	}
}
