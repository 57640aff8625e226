package model

import (
	"encoding/json"
	"fmt"
)

// DID document property names.
const (
	FieldContext              = "@context"
	FieldID                   = "id"
	FieldController           = "controller"
	FieldAlsoKnownAs          = "alsoKnownAs"
	FieldVerificationMethod   = "verificationMethod"
	FieldAuthentication       = "authentication"
	FieldAssertionMethod      = "assertionMethod"
	FieldKeyAgreement         = "keyAgreement"
	FieldCapabilityInvocation = "capabilityInvocation"
	FieldCapabilityDelegation = "capabilityDelegation"
	FieldService              = "service"
)

// DIDDocument represents a resolved DID document.
//
// Properties the SDK does not model are kept in Additional and written back
// unchanged by MarshalJSON.
type DIDDocument struct {
	Context              interface{}                `json:"@context,omitempty"`
	ID                   string                     `json:"id"`
	Controller           interface{}                `json:"controller,omitempty"` // Can be string or []string
	AlsoKnownAs          []string                   `json:"alsoKnownAs,omitempty"`
	VerificationMethod   []VerificationRelationship `json:"verificationMethod,omitempty"`
	Authentication       []VerificationRelationship `json:"authentication,omitempty"`
	AssertionMethod      []VerificationRelationship `json:"assertionMethod,omitempty"`
	KeyAgreement         []VerificationRelationship `json:"keyAgreement,omitempty"`
	CapabilityInvocation []VerificationRelationship `json:"capabilityInvocation,omitempty"`
	CapabilityDelegation []VerificationRelationship `json:"capabilityDelegation,omitempty"`
	Service              []Service                  `json:"service,omitempty"`

	Additional map[string]interface{} `json:"-"`
}

// VerificationRelationship is an entry of a verification method section: either
// an embedded verification method or a string reference to one defined elsewhere.
type VerificationRelationship struct {
	Reference string
	Method    *VerificationMethod
}

// VerificationMethod represents a single verification method in a DID Document.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller,omitempty"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	PublicKeyHex       string `json:"publicKeyHex,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
}

// JWK represents a JSON Web Key structure
type JWK struct {
	Kty string `json:"kty"`           // Key type
	Crv string `json:"crv,omitempty"` // Curve
	X   string `json:"x,omitempty"`   // X coordinate
	Y   string `json:"y,omitempty"`   // Y coordinate
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
}

// Service represents a DID document service entry.
type Service struct {
	ID              string      `json:"id"`
	Type            interface{} `json:"type"`            // Can be string or []string
	ServiceEndpoint interface{} `json:"serviceEndpoint"` // Can be string, object or array
}

// Types returns the service types as a slice.
func (s *Service) Types() []string {
	switch t := s.Type.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		types := make([]string, 0, len(t))
		for _, v := range t {
			if str, ok := v.(string); ok {
				types = append(types, str)
			}
		}
		return types
	default:
		return nil
	}
}

// HasType returns true if the service declares the given type.
func (s *Service) HasType(serviceType string) bool {
	for _, t := range s.Types() {
		if t == serviceType {
			return true
		}
	}
	return false
}

// EndpointString returns the service endpoint if it is a plain string.
func (s *Service) EndpointString() (string, bool) {
	endpoint, ok := s.ServiceEndpoint.(string)
	return endpoint, ok
}

// Relationship returns the entries of the named verification method section.
func (doc *DIDDocument) Relationship(section string) []VerificationRelationship {
	switch section {
	case FieldVerificationMethod:
		return doc.VerificationMethod
	case FieldAuthentication:
		return doc.Authentication
	case FieldAssertionMethod:
		return doc.AssertionMethod
	case FieldKeyAgreement:
		return doc.KeyAgreement
	case FieldCapabilityInvocation:
		return doc.CapabilityInvocation
	case FieldCapabilityDelegation:
		return doc.CapabilityDelegation
	default:
		return nil
	}
}

// Clone returns a deep copy of the document.
func (doc *DIDDocument) Clone() *DIDDocument {
	if doc == nil {
		return nil
	}

	c := *doc
	c.Context = cloneValue(doc.Context)
	c.Controller = cloneValue(doc.Controller)
	c.AlsoKnownAs = cloneSlice(doc.AlsoKnownAs)
	c.VerificationMethod = cloneRelationships(doc.VerificationMethod)
	c.Authentication = cloneRelationships(doc.Authentication)
	c.AssertionMethod = cloneRelationships(doc.AssertionMethod)
	c.KeyAgreement = cloneRelationships(doc.KeyAgreement)
	c.CapabilityInvocation = cloneRelationships(doc.CapabilityInvocation)
	c.CapabilityDelegation = cloneRelationships(doc.CapabilityDelegation)
	c.Additional = cloneMap(doc.Additional)

	if doc.Service != nil {
		c.Service = make([]Service, len(doc.Service))
		for i, s := range doc.Service {
			c.Service[i] = Service{
				ID:              s.ID,
				Type:            cloneValue(s.Type),
				ServiceEndpoint: cloneValue(s.ServiceEndpoint),
			}
		}
	}

	return &c
}

// Clone returns a copy of the verification method and its JWK.
func (vm *VerificationMethod) Clone() *VerificationMethod {
	if vm == nil {
		return nil
	}

	c := *vm
	if vm.PublicKeyJwk != nil {
		jwk := *vm.PublicKeyJwk
		c.PublicKeyJwk = &jwk
	}

	return &c
}

// Hash returns the Keccak256 hash of the canonical JSON form of the document.
func (doc *DIDDocument) Hash() (string, error) {
	return hashDocument(doc)
}

type didDocumentAlias DIDDocument

// MarshalJSON writes the modelled properties merged with Additional.
func (doc DIDDocument) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(didDocumentAlias(doc))
	if err != nil {
		return nil, err
	}

	if len(doc.Additional) == 0 {
		return known, nil
	}

	merged := make(map[string]interface{}, len(doc.Additional)+8)
	for k, v := range doc.Additional {
		merged[k] = v
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}

	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// UnmarshalJSON reads the modelled properties and keeps the rest in Additional.
func (doc *DIDDocument) UnmarshalJSON(data []byte) error {
	var alias didDocumentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for _, k := range []string{
		FieldContext, FieldID, FieldController, FieldAlsoKnownAs, FieldVerificationMethod,
		FieldAuthentication, FieldAssertionMethod, FieldKeyAgreement, FieldCapabilityInvocation,
		FieldCapabilityDelegation, FieldService,
	} {
		delete(raw, k)
	}

	*doc = DIDDocument(alias)

	if len(raw) > 0 {
		doc.Additional = raw
	}

	return nil
}

// MarshalJSON writes a reference as a string and a method as an object.
func (r VerificationRelationship) MarshalJSON() ([]byte, error) {
	if r.Method != nil {
		return json.Marshal(r.Method)
	}
	return json.Marshal(r.Reference)
}

// UnmarshalJSON accepts either a string reference or a verification method object.
func (r *VerificationRelationship) UnmarshalJSON(data []byte) error {
	var ref string
	if err := json.Unmarshal(data, &ref); err == nil {
		*r = VerificationRelationship{Reference: ref}
		return nil
	}

	var vm VerificationMethod
	if err := json.Unmarshal(data, &vm); err != nil {
		return fmt.Errorf("verification relationship must be a string or an object: %w", err)
	}

	*r = VerificationRelationship{Method: &vm}

	return nil
}

// ParseDIDDocument parses a DID document from JSON.
func ParseDIDDocument(data []byte) (*DIDDocument, error) {
	var doc DIDDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}
	return &doc, nil
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

func cloneRelationships(rs []VerificationRelationship) []VerificationRelationship {
	if rs == nil {
		return nil
	}

	out := make([]VerificationRelationship, len(rs))
	for i, r := range rs {
		out[i] = VerificationRelationship{Reference: r.Reference, Method: r.Method.Clone()}
	}

	return out
}

// cloneValue copies the maps and slices of a decoded JSON value.
func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return cloneMap(t)
	case []interface{}:
		if t == nil {
			return t
		}

		out := make([]interface{}, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}

		return out
	case []string:
		return cloneSlice(t)
	default:
		return v
	}
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}

	return out
}
