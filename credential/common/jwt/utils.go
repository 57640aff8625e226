package jwt

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Decode parses a compact JWT without verifying its signature and returns
// its header and payload.
func Decode(tokenString string) (map[string]interface{}, map[string]interface{}, error) {
	claims := jwt.MapClaims{}

	token, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode JWT: %w", err)
	}

	return token.Header, claims, nil
}

// GetDocumentFromJWT returns the document carried under the docType claim
// ("vc" or "vp") of an unverified JWT.
func GetDocumentFromJWT(tokenString string, docType string) (map[string]interface{}, error) {
	_, payload, err := Decode(tokenString)
	if err != nil {
		return nil, err
	}

	documentData, ok := payload[docType]
	if !ok {
		return nil, fmt.Errorf("document type %s not found in JWT", docType)
	}

	document, ok := documentData.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("document is not a valid JSON object")
	}

	return document, nil
}
