package vp

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

// ClaimVP is the JWT claim carrying the presentation.
const ClaimVP = "vp"

// JWTPresentation is a presentation secured as a JWT signed by the holder.
type JWTPresentation struct {
	signingInput string
	payloadData  PresentationData
	signature    string

	claims map[string]interface{}
	keyID  string
}

// NewJWTPresentation builds an unsigned JWT presentation. Its signing input
// uses the ES256K algorithm; AddProof re-encodes the header for the key it is given.
func NewJWTPresentation(vpc PresentationContents, opts ...PresentationOpt) (Presentation, error) {
	options := getOptions(opts...)

	m, err := serializePresentationContents(&vpc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize presentation contents: %w", err)
	}

	claims := map[string]interface{}{
		ClaimVP: map[string]interface{}(m),
	}
	if vpc.Holder != "" {
		claims["iss"] = vpc.Holder
		claims["sub"] = vpc.Holder
	}
	if vpc.ID != "" {
		claims["jti"] = vpc.ID
	}
	if options.challenge != "" {
		claims["nonce"] = options.challenge
	}
	if options.domain != "" {
		claims["aud"] = options.domain
	}

	j := &JWTPresentation{
		payloadData: m,
		claims:      claims,
		keyID:       options.verificationMethod(vpc.Holder),
	}

	token := jwt.NewWithClaims(sdkjwt.ES256K, jwt.MapClaims(claims))
	token.Header["typ"] = "JWT"
	token.Header["kid"] = j.keyID

	j.signingInput, err = token.SigningString()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signing input: %w", err)
	}

	return j, nil
}

// ParsePresentationJWT parses a JWT presentation without verifying it.
func ParsePresentationJWT(rawJWT string, opts ...PresentationOpt) (Presentation, error) {
	rawJWT = strings.Trim(rawJWT, `"`)

	if !isJWTPresentation(rawJWT) {
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "invalid JWT format")
	}

	header, payload, err := sdkjwt.Decode(rawJWT)
	if err != nil {
		return nil, sdkerrors.Wrap(sdkerrors.ErrDecode, "", "", err)
	}

	vpMap, ok := payload[ClaimVP].(map[string]interface{})
	if !ok {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "vp claim not found in JWT payload")
	}

	kid, _ := header["kid"].(string)
	parts := strings.Split(rawJWT, ".")

	return &JWTPresentation{
		signingInput: parts[0] + "." + parts[1],
		payloadData:  vpMap,
		signature:    parts[2],
		claims:       payload,
		keyID:        kid,
	}, nil
}

// AddProof signs the presentation claims with the holder's key.
func (j *JWTPresentation) AddProof(priv crypto.PrivateKey, opts ...PresentationOpt) error {
	keyID := j.keyID
	if len(opts) > 0 {
		if holder, ok := j.claims["iss"].(string); ok {
			keyID = getOptions(opts...).verificationMethod(holder)
		}
	}

	signer, err := sdkjwt.NewJWTSigner(priv, keyID)
	if err != nil {
		return err
	}

	token, err := signer.SignClaims(j.claims)
	if err != nil {
		return fmt.Errorf("failed to sign presentation: %w", err)
	}

	idx := strings.LastIndex(token, ".")
	j.signingInput, j.signature, j.keyID = token[:idx], token[idx+1:], keyID

	return nil
}

func (j *JWTPresentation) GetSigningInput() ([]byte, error) {
	return []byte(j.signingInput), nil
}

// AddCustomProof sets the JWT signature from proof.JWS.
func (j *JWTPresentation) AddCustomProof(p *model.Proof) error {
	if p == nil {
		return fmt.Errorf("proof cannot be nil")
	}

	if p.JWS == "" {
		return fmt.Errorf("proof signature cannot be empty")
	}

	if _, err := base64.RawURLEncoding.DecodeString(p.JWS); err != nil {
		return fmt.Errorf("proof signature must be base64url encoded: %w", err)
	}

	j.signature = p.JWS

	return nil
}

// Verify verifies the holder signature. The holder of the vp claim must be the
// iss claim. With WithChallenge or WithDomain the nonce and aud claims must match.
func (j *JWTPresentation) Verify(ctx context.Context, opts ...PresentationOpt) error {
	options := getOptions(opts...)

	if j.signature == "" {
		return sdkerrors.Newf(sdkerrors.ErrGuard, "presentation is not signed")
	}

	result, err := proof.NewVerifier(options.getResolver()).VerifyJWT(ctx, j.signingInput+"."+j.signature)
	if err != nil {
		return err
	}

	if holder := presentationHolder(j.payloadData); holder != "" && holder != result.Issuer() {
		return sdkerrors.New(sdkerrors.ErrSignatureInvalid, "", holder)
	}

	if options.challenge != "" && j.claims["nonce"] != options.challenge {
		return sdkerrors.Newf(sdkerrors.ErrGuard, "presentation nonce does not match the challenge")
	}

	if options.domain != "" && j.claims["aud"] != options.domain {
		return sdkerrors.Newf(sdkerrors.ErrGuard, "presentation aud does not match the domain")
	}

	if options.isValidateVC {
		return verifyCredentials(ctx, j.payloadData, options)
	}

	return nil
}

// Serialize returns the compact JWT, unsigned if no proof was added.
func (j *JWTPresentation) Serialize() (interface{}, error) {
	if j.signature != "" {
		return j.signingInput + "." + j.signature, nil
	}

	return j.signingInput, nil
}

// GetContents returns the vp claim as JSON.
func (j *JWTPresentation) GetContents() ([]byte, error) {
	return json.Marshal(j.payloadData)
}

func (j *JWTPresentation) GetType() string {
	return "JWT"
}
