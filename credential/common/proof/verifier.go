// Package proof verifies JWT signatures and embedded data integrity proofs
// against keys published in resolved DID documents.
package proof

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/trustbloc/logutil-go/pkg/log"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/document"
	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	sdkjwt "github.com/pilacorp/go-identity-sdk/credential/common/jwt"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/provider"
	logfields "github.com/pilacorp/go-identity-sdk/internal/log"
)

var logger = log.New("proof")

// Verifier verifies signatures against keys resolved through a Resolver.
// A Verifier holds no per-call state and is safe for concurrent use.
type Verifier struct {
	resolver provider.Resolver
	sections []document.Section
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithSection restricts key lookup to one verification method section, for
// example assertionMethod for credential issuers.
func WithSection(section document.Section) Option {
	return func(v *Verifier) {
		v.sections = []document.Section{section}
	}
}

// NewVerifier returns a Verifier that resolves DID documents with resolver.
func NewVerifier(resolver provider.Resolver, opts ...Option) *Verifier {
	v := &Verifier{resolver: resolver}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// JWTResult is the outcome of a successful JWT verification.
type JWTResult struct {
	Header             map[string]interface{}
	Payload            map[string]interface{}
	VerificationMethod string
	// Document is the resolved issuer document the key was taken from.
	Document *model.DIDDocument
}

// Issuer returns the iss claim.
func (r *JWTResult) Issuer() string {
	iss, _ := r.Payload["iss"].(string)
	return iss
}

// VerifyJWT decodes token, resolves its issuer and verifies the signature with
// the key referenced by the kid header. A kid of the form "#fragment" is
// relative to the issuer DID.
//
// Resolver errors are returned unchanged. A signature that does not verify,
// or an alg header that does not match the key, yields ErrSignatureInvalid.
// Registered claims such as exp and nbf are not checked.
func (v *Verifier) VerifyJWT(ctx context.Context, token string) (*JWTResult, error) {
	header, payload, err := sdkjwt.Decode(token)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	kid, _ := header["kid"].(string)
	if kid == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "JWT header kid is missing")
	}

	iss, _ := payload["iss"].(string)
	if iss == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "JWT payload iss is missing")
	}

	if strings.HasPrefix(kid, "#") {
		kid = iss + kid
	}

	doc, err := v.resolver.Resolve(ctx, iss)
	if err != nil {
		return nil, err
	}

	pub, alg, err := v.publicKey(doc, kid)
	if err != nil {
		return nil, err
	}

	if _, _, err := sdkjwt.Verify(token, pub, alg); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", kid, err)
		}

		logger.Debug("JWT signature is invalid", logfields.WithDID(iss), logfields.WithVerificationMethod(kid),
			logfields.WithAlgorithm(alg), log.WithError(err))

		return nil, sdkerrors.Wrap(sdkerrors.ErrSignatureInvalid, "", kid, err)
	}

	logger.Debug("JWT signature verified", logfields.WithDID(iss), logfields.WithVerificationMethod(kid),
		logfields.WithAlgorithm(alg))

	return &JWTResult{
		Header:             header,
		Payload:            payload,
		VerificationMethod: kid,
		Document:           doc,
	}, nil
}

// VerifyDocumentProof verifies every proof of securedDocument. The proof
// property may be a single object or an array; all proofs must verify.
// Verification stops at the first proof that fails, returning false.
//
// Each DID referenced by a proof is resolved once per call. Errors are
// returned for missing or malformed proofs, unresolvable DIDs and missing keys.
func (v *Verifier) VerifyDocumentProof(ctx context.Context, securedDocument map[string]interface{}) (bool, error) {
	proofs, err := documentProofs(securedDocument)
	if err != nil {
		return false, err
	}

	docs := make(map[string]*model.DIDDocument)

	for i, p := range proofs {
		did, err := proofSigner(i, p)
		if err != nil {
			return false, err
		}

		doc, ok := docs[did]
		if !ok {
			doc, err = v.resolver.Resolve(ctx, did)
			if err != nil {
				return false, err
			}

			docs[did] = doc
		}

		valid, err := v.verifyProof(securedDocument, p, doc)
		if err != nil {
			return false, err
		}

		if !valid {
			logger.Debug("Document proof is invalid", logfields.WithVerificationMethod(p.VerificationMethod),
				logfields.WithCryptosuite(p.Cryptosuite), logfields.WithIndex(i))

			return false, nil
		}
	}

	logger.Debug("Document proofs verified", logfields.WithProofCount(len(proofs)))

	return true, nil
}

// VerifyDocumentProofBy verifies securedDocument like VerifyDocumentProof and
// additionally requires every proof to reference a verification method of
// the signer DID, such as the issuer of a credential or the holder of a
// presentation. A proof made with another DID's key yields false without
// resolving anything.
func (v *Verifier) VerifyDocumentProofBy(ctx context.Context, securedDocument map[string]interface{},
	signer string) (bool, error) {
	if signer == "" {
		return false, sdkerrors.Newf(sdkerrors.ErrGuard, "signer DID is required")
	}

	proofs, err := documentProofs(securedDocument)
	if err != nil {
		return false, err
	}

	for i, p := range proofs {
		did, err := proofSigner(i, p)
		if err != nil {
			return false, err
		}

		if did != signer {
			logger.Info("Document proof is not made by the expected signer", logfields.WithDID(signer),
				logfields.WithVerificationMethod(p.VerificationMethod), logfields.WithIndex(i))

			return false, nil
		}
	}

	return v.VerifyDocumentProof(ctx, securedDocument)
}

func documentProofs(securedDocument map[string]interface{}) ([]*model.Proof, error) {
	raw, ok := securedDocument["proof"]
	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "document has no proof")
	}

	proofs, err := model.ParseProofs(raw)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	return proofs, nil
}

// proofSigner returns the DID whose key made proof i.
func proofSigner(i int, p *model.Proof) (string, error) {
	if p.VerificationMethod == "" {
		return "", sdkerrors.Newf(sdkerrors.ErrGuard, "proof %d has no verificationMethod", i)
	}

	did, err := document.DIDFromVerificationMethod(p.VerificationMethod)
	if err != nil {
		return "", sdkerrors.Wrap(sdkerrors.ErrGuard, "", p.VerificationMethod,
			fmt.Errorf("proof %d: verificationMethod must be a did#fragment reference: %w", i, err))
	}

	return did, nil
}

func (v *Verifier) verifyProof(securedDocument map[string]interface{}, p *model.Proof,
	doc *model.DIDDocument) (bool, error) {
	jwk, err := document.ExtractJWK(doc, p.VerificationMethod, v.sections...)
	if err != nil {
		return false, err
	}

	suite, err := sdkcrypto.SuiteFor(p.Cryptosuite)
	if err != nil {
		return false, sdkerrors.Wrap(sdkerrors.ErrDecode, "", p.VerificationMethod, err)
	}

	err = suite.VerifyProof(securedDocument, p, jwk)
	if errors.Is(err, sdkcrypto.ErrInvalidSignature) {
		return false, nil
	}

	if err != nil {
		return false, sdkerrors.Wrap(sdkerrors.ErrDecode, "", p.VerificationMethod, err)
	}

	return true, nil
}

// publicKey returns the key of verification method kid and the JWS algorithm it implies.
func (v *Verifier) publicKey(doc *model.DIDDocument, kid string) (interface{}, string, error) {
	jwk, err := document.ExtractJWK(doc, kid, v.sections...)
	if err != nil {
		return nil, "", err
	}

	alg, err := sdkcrypto.Algorithm(jwk)
	if err != nil {
		return nil, "", sdkerrors.Wrap(sdkerrors.ErrNotFound, sdkerrors.CodeVerificationMethodJWKNotFound, kid, err)
	}

	pub, err := sdkcrypto.PublicKeyFromJWK(jwk)
	if err != nil {
		return nil, "", sdkerrors.Wrap(sdkerrors.ErrNotFound, sdkerrors.CodeVerificationMethodJWKNotFound, kid, err)
	}

	return pub, alg, nil
}
