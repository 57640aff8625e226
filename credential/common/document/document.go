// Package document provides lookups over resolved DID documents: composite
// identifier parsing, verification method and service lookup, and key extraction.
//
// All functions are pure and never modify the document they are given.
package document

import (
	"strings"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// Section names a verification method section of a DID document.
type Section string

// Verification method sections.
const (
	SectionVerificationMethod   Section = model.FieldVerificationMethod
	SectionAuthentication       Section = model.FieldAuthentication
	SectionAssertionMethod      Section = model.FieldAssertionMethod
	SectionKeyAgreement         Section = model.FieldKeyAgreement
	SectionCapabilityInvocation Section = model.FieldCapabilityInvocation
	SectionCapabilityDelegation Section = model.FieldCapabilityDelegation
)

// RevocationFragment is the fragment of the revocation service of a DID document.
const RevocationFragment = "revocation"

// sectionOrder is the scan order used when no section is requested.
var sectionOrder = []Section{
	SectionVerificationMethod,
	SectionAuthentication,
	SectionAssertionMethod,
	SectionKeyAgreement,
	SectionCapabilityInvocation,
	SectionCapabilityDelegation,
}

// CompositeID is an identifier split at its first '#'.
type CompositeID struct {
	ID          string
	Fragment    string
	HasFragment bool
}

// String joins the identifier and fragment back together.
func (c CompositeID) String() string {
	if !c.HasFragment {
		return c.ID
	}
	return c.ID + "#" + c.Fragment
}

// ParseCompositeID splits fullID on the first '#'. HasFragment is false when there is no '#'.
func ParseCompositeID(fullID string) (CompositeID, error) {
	if fullID == "" {
		return CompositeID{}, sdkerrors.Newf(sdkerrors.ErrInvalidFormat, "identifier is empty")
	}

	id, fragment, found := strings.Cut(fullID, "#")

	return CompositeID{ID: id, Fragment: fragment, HasFragment: found}, nil
}

// DIDFromVerificationMethod returns the DID part of a did#fragment reference.
func DIDFromVerificationMethod(verificationMethod string) (string, error) {
	c, err := ParseCompositeID(verificationMethod)
	if err != nil {
		return "", err
	}

	if !c.HasFragment || c.Fragment == "" || !strings.HasPrefix(c.ID, "did:") {
		return "", sdkerrors.Wrap(sdkerrors.ErrInvalidFormat, "", verificationMethod,
			sdkerrors.Newf(sdkerrors.ErrInvalidFormat, "expected did#fragment"))
	}

	return c.ID, nil
}

// FindVerificationMethod returns the verification method with the given id.
//
// With no section argument the verificationMethod section is searched first,
// followed by authentication, assertionMethod, keyAgreement,
// capabilityInvocation and capabilityDelegation. With a section argument only
// that section is searched. String references never match.
func FindVerificationMethod(doc *model.DIDDocument, verificationMethodID string,
	section ...Section) (*model.VerificationMethod, error) {
	if verificationMethodID == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrInvalidFormat, "verification method id is empty")
	}

	sections := sectionOrder
	if len(section) > 0 {
		sections = section[:1]
	}

	if doc != nil {
		for _, s := range sections {
			for _, entry := range doc.Relationship(string(s)) {
				if entry.Method != nil && entry.Method.ID == verificationMethodID {
					return entry.Method, nil
				}
			}
		}
	}

	return nil, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeVerificationMethodNotFound, verificationMethodID)
}

// ExtractJWK returns the publicKeyJwk of the verification method with the given id.
// The key is returned as published; converting it to a usable key is left to the caller.
func ExtractJWK(doc *model.DIDDocument, verificationMethodID string, section ...Section) (*model.JWK, error) {
	vm, err := FindVerificationMethod(doc, verificationMethodID, section...)
	if err != nil {
		return nil, err
	}

	if vm.PublicKeyJwk == nil || vm.PublicKeyJwk.Kty == "" {
		return nil, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeVerificationMethodJWKNotFound, verificationMethodID)
	}

	return vm.PublicKeyJwk, nil
}

// FindService returns the service entry with the given id. A relative id
// ("#fragment") is resolved against the document id.
func FindService(doc *model.DIDDocument, serviceID string) (*model.Service, error) {
	if serviceID == "" {
		return nil, sdkerrors.Newf(sdkerrors.ErrInvalidFormat, "service id is empty")
	}

	if doc == nil {
		return nil, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeServiceNotFound, serviceID)
	}

	idx := serviceIndex(doc, serviceID)
	if idx < 0 {
		return nil, sdkerrors.New(sdkerrors.ErrNotFound, sdkerrors.CodeServiceNotFound, serviceID)
	}

	return &doc.Service[idx], nil
}

// ServiceIndex returns the position of the service with the given id, or -1.
func ServiceIndex(doc *model.DIDDocument, serviceID string) int {
	if doc == nil {
		return -1
	}
	return serviceIndex(doc, serviceID)
}

func serviceIndex(doc *model.DIDDocument, serviceID string) int {
	if strings.HasPrefix(serviceID, "#") {
		serviceID = doc.ID + serviceID
	}

	for i := range doc.Service {
		id := doc.Service[i].ID
		if id == serviceID || (strings.HasPrefix(id, "#") && doc.ID+id == serviceID) {
			return i
		}
	}
	return -1
}

// RevocationServiceID returns the id of the revocation service for did.
func RevocationServiceID(did string) string {
	return did + "#" + RevocationFragment
}
