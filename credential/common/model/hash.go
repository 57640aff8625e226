package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gowebpki/jcs"
)

// hashDocument calculates the Keccak256 hash of the JCS form of v.
func hashDocument(v interface{}) (string, error) {
	docJSON, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal DID document: %w", err)
	}

	docToHash, err := jcs.Transform(docJSON)
	if err != nil {
		return "", fmt.Errorf("failed to transform DID document: %w", err)
	}

	hash := crypto.Keccak256Hash(docToHash)

	return strings.ToLower(hash.Hex()), nil
}
