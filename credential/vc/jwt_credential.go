package vc

import (
	"context"
	"crypto"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	sdkjwt "github.com/pilacorp/go-identity-sdk/credential/common/jwt"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
	"github.com/pilacorp/go-identity-sdk/credential/common/proof"
)

// ClaimVC is the JWT claim carrying the credential.
const ClaimVC = "vc"

// JWTCredential is a credential secured as a JWT.
type JWTCredential struct {
	SigningInput string         // JWT header.payload (base64 encoded)
	PayloadData  CredentialData // Parsed vc claim
	Signature    string         // JWT signature (if signed)

	claims  map[string]interface{}
	keyID   string
	options *credentialOptions
}

// NewJWTCredential builds an unsigned JWT credential. Its signing input uses
// the ES256K algorithm; AddProof re-encodes the header for the key it is given.
func NewJWTCredential(vcc CredentialContents, opts ...CredentialOpt) (Credential, error) {
	options := getOptions(opts...)

	m, err := serializeCredentialContents(&vcc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize credential contents: %w", err)
	}

	if err := validateCredential(m, options); err != nil {
		return nil, err
	}

	claims := map[string]interface{}{
		ClaimVC: map[string]interface{}(m),
	}
	if vcc.Issuer != "" {
		claims["iss"] = vcc.Issuer
	}
	if len(vcc.Subject) > 0 && vcc.Subject[0].ID != "" {
		claims["sub"] = vcc.Subject[0].ID
	}
	if !vcc.ValidUntil.IsZero() {
		claims["exp"] = vcc.ValidUntil.Unix()
	}
	if !vcc.ValidFrom.IsZero() {
		claims["iat"] = vcc.ValidFrom.Unix()
		claims["nbf"] = vcc.ValidFrom.Unix()
	}
	if vcc.ID != "" {
		claims["jti"] = vcc.ID
	}

	j := &JWTCredential{
		PayloadData: m,
		claims:      claims,
		keyID:       options.verificationMethod(vcc.Issuer),
		options:     options,
	}

	token := jwt.NewWithClaims(sdkjwt.ES256K, jwt.MapClaims(claims))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = j.keyID

	j.SigningInput, err = token.SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signing input: %w", err)
	}

	return j, nil
}

// ParseCredentialJWT parses a JWT credential without verifying it.
func ParseCredentialJWT(rawJWT string, opts ...CredentialOpt) (Credential, error) {
	// Remove JSON quotes if present (from json.Marshal of a string)
	rawJWT = strings.Trim(rawJWT, `"`)

	if !isJWTCredential(rawJWT) {
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "invalid JWT format")
	}

	options := getOptions(opts...)

	header, payload, err := sdkjwt.Decode(rawJWT)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	parts := strings.Split(rawJWT, ".")

	vcMap, ok := payload[ClaimVC].(map[string]interface{})
	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "vc claim not found in JWT payload")
	}

	if err := validateCredential(vcMap, options); err != nil {
		return nil, err
	}

	kid, _ := header["kid"].(string)

	return &JWTCredential{
		SigningInput: parts[0] + "." + parts[1],
		PayloadData:  vcMap,
		Signature:    parts[2],
		claims:       payload,
		keyID:        kid,
		options:      options,
	}, nil
}

// AddProof signs the credential claims with priv.
func (j *JWTCredential) AddProof(priv crypto.PrivateKey, opts ...CredentialOpt) error {
	keyID := j.keyID
	if len(opts) > 0 {
		if issuer, ok := j.claims["iss"].(string); ok {
			keyID = getOptions(opts...).verificationMethod(issuer)
		}
	}

	signer, err := sdkjwt.NewJWTSigner(priv, keyID)
	if err != nil {
		return err
	}

	token, err := signer.SignClaims(j.claims)
	if err != nil {
		return fmt.Errorf("failed to sign credential: %w", err)
	}

	idx := strings.LastIndex(token, ".")
	j.SigningInput, j.Signature, j.keyID = token[:idx], token[idx+1:], keyID

	return nil
}

// GetSigningInput returns the JWT header.payload to sign with ES256K.
func (j *JWTCredential) GetSigningInput() ([]byte, error) {
	return []byte(j.SigningInput), nil
}

// AddCustomProof sets the JWT signature from proof.JWS, the base64url encoded
// signature over GetSigningInput.
func (j *JWTCredential) AddCustomProof(p *model.Proof) error {
	if p == nil {
		return fmt.Errorf("proof cannot be nil")
	}

	if p.JWS == "" {
		return fmt.Errorf("proof signature cannot be empty")
	}

	if _, err := base64.RawURLEncoding.DecodeString(p.JWS); err != nil {
		return fmt.Errorf("proof signature must be base64url encoded: %w", err)
	}

	j.Signature = p.JWS

	return nil
}

// Verify verifies the JWT signature with the issuer's key and validates the
// credential schema when requested. The issuer of the vc claim must be the
// iss claim.
func (j *JWTCredential) Verify(ctx context.Context, opts ...CredentialOpt) error {
	options := getOptions(opts...)

	if j.Signature == "" {
		return sdkerrors.Newf(sdkerrors.ErrGuard, "credential is not signed")
	}

	serialized, err := j.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize credential: %w", err)
	}

	result, err := proof.NewVerifier(options.getResolver()).VerifyJWT(ctx, serialized.(string))
	if err != nil {
		return err
	}

	if issuer := credentialIssuer(j.PayloadData); issuer != "" && issuer != result.Issuer() {
		return sdkerrors.New(sdkerrors.ErrSignatureInvalid, "", issuer)
	}

	return validateCredential(j.PayloadData, options)
}

// Serialize returns the compact JWT, unsigned if no proof was added.
func (j *JWTCredential) Serialize() (interface{}, error) {
	if j.Signature != "" {
		return j.SigningInput + "." + j.Signature, nil
	}

	return j.SigningInput, nil
}

// GetContents returns the vc claim as JSON.
func (j *JWTCredential) GetContents() ([]byte, error) {
	return json.Marshal(j.PayloadData)
}

func (j *JWTCredential) GetType() string {
	return "JWT"
}
