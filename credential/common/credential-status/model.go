package credentialstatus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
)

// Revocation service and status types.
const (
	ServiceTypeBitstringStatusList     = "BitstringStatusList"
	ServiceTypeRevocationBitmap2022    = "RevocationBitmap2022"
	StatusTypeBitstringStatusListEntry = "BitstringStatusListEntry"

	StatusPurposeRevocation = "revocation"
)

// Status is the credentialStatus claim of a credential.
//
// A status either points at the issuer's #revocation service entry through
// RevocationBitmapIndex, or at a status list credential through
// StatusListCredential and StatusListIndex.
type Status struct {
	ID                    string
	Type                  string
	RevocationBitmapIndex int
	StatusPurpose         string
	StatusListIndex       int
	StatusListCredential  string
}

// StatusList returns true if the status refers to a status list credential.
func (s *Status) StatusList() bool {
	return s.StatusListCredential != ""
}

// MatchesService reports whether the status type refers to a revocation
// service of serviceType. A BitstringStatusList service is referenced by
// either BitstringStatusList or BitstringStatusListEntry.
func (s *Status) MatchesService(serviceType string) bool {
	switch serviceType {
	case ServiceTypeBitstringStatusList:
		return s.Type == ServiceTypeBitstringStatusList || s.Type == StatusTypeBitstringStatusListEntry
	case ServiceTypeRevocationBitmap2022:
		return s.Type == ServiceTypeRevocationBitmap2022
	default:
		return false
	}
}

// SupportedServiceType reports whether serviceType is a revocation service type
// this package can decode.
func SupportedServiceType(serviceType string) bool {
	return serviceType == ServiceTypeBitstringStatusList || serviceType == ServiceTypeRevocationBitmap2022
}

// DID returns the DID part of the status id.
func (s *Status) DID() string {
	did, _, _ := strings.Cut(s.ID, "#")
	return did
}

// ParseStatus reads a credentialStatus claim, given as an object or an array
// whose first entry is used. It returns nil, nil when raw is nil.
func ParseStatus(raw interface{}) (*Status, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, nil
		}
		return ParseStatus(v[0])
	case map[string]interface{}:
		return parseStatusObject(v)
	default:
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "credentialStatus must be an object, got %T", raw)
	}
}

func parseStatusObject(m map[string]interface{}) (*Status, error) {
	s := &Status{}
	s.ID, _ = m["id"].(string)
	s.Type, _ = m["type"].(string)
	s.StatusPurpose, _ = m["statusPurpose"].(string)
	s.StatusListCredential, _ = m["statusListCredential"].(string)

	if s.StatusListCredential != "" {
		index, err := parseIndex(m["statusListIndex"])
		if err != nil {
			return nil, fmt.Errorf("invalid statusListIndex: %w", err)
		}

		s.StatusListIndex = index

		return s, nil
	}

	if s.ID == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "credentialStatus.id is missing")
	}

	index, err := parseIndex(m["revocationBitmapIndex"])
	if err != nil {
		return nil, fmt.Errorf("invalid revocationBitmapIndex: %w", err)
	}

	s.RevocationBitmapIndex = index

	return s, nil
}

// parseIndex accepts a non-negative integer as a JSON number or a decimal string.
func parseIndex(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case string:
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			return 0, sdkerrors.Newf(sdkerrors.ErrDecode, "index %q is not a non-negative integer", v)
		}
		return i, nil
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxInt32 {
			return 0, sdkerrors.Newf(sdkerrors.ErrDecode, "index %v is not a non-negative integer", v)
		}
		return int(v), nil
	case int:
		if v < 0 {
			return 0, sdkerrors.Newf(sdkerrors.ErrDecode, "index %d is negative", v)
		}
		return v, nil
	case json.Number:
		return parseIndex(v.String())
	case nil:
		return 0, sdkerrors.Newf(sdkerrors.ErrGuard, "index is missing")
	default:
		return 0, sdkerrors.Newf(sdkerrors.ErrDecode, "unsupported index type %T", raw)
	}
}

// StatusListCredentialResponse represents the top-level response wrapper:
type StatusListCredentialResponse struct {
	Data StatusListCredential `json:"data"`
}

// StatusListCredential models the Verifiable Credential returned by the
// status list endpoint. Only fields that are clearly needed are typed.
type StatusListCredential struct {
	Context           []string                    `json:"@context"`
	CredentialSubject StatusListCredentialSubject `json:"credentialSubject"`
	ID                string                      `json:"id"`
	Issuer            string                      `json:"issuer"`
	Proof             map[string]interface{}      `json:"proof"`
	Type              []string                    `json:"type"`
	ValidFrom         string                      `json:"validFrom"`
	ValidUntil        string                      `json:"validUntil"`
}

// StatusListCredentialSubject represents the credentialSubject of the
// status list credential, including the encoded bitstring list.
type StatusListCredentialSubject struct {
	EncodedList   string `json:"encodedList"`
	ID            string `json:"id"`
	StatusPurpose string `json:"statusPurpose"`
	Type          string `json:"type"`
}
