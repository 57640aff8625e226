package model

import (
	"fmt"
	"maps"
)

// Proof property names.
const (
	ProofFieldType               = "type"
	ProofFieldCreated            = "created"
	ProofFieldVerificationMethod = "verificationMethod"
	ProofFieldProofPurpose       = "proofPurpose"
	ProofFieldProofValue         = "proofValue"
	ProofFieldCryptosuite        = "cryptosuite"
	ProofFieldChallenge          = "challenge"
	ProofFieldDomain             = "domain"
	ProofFieldJWS                = "jws"
)

// Proof represents a Linked Data Proof attached to a secured document.
//
// Raw holds the proof object as it appeared in the document. Cryptosuites
// derive the proof configuration from it, so properties the struct does not
// model are still covered by the signature.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`
	JWS                string `json:"jws,omitempty"`
	Cryptosuite        string `json:"cryptosuite,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`

	Raw map[string]interface{} `json:"-"`
}

// ParseProof converts a single proof object into a Proof.
func ParseProof(raw interface{}) (*Proof, error) {
	proofMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid proof format: expected object, got %T", raw)
	}

	str := func(key string) string {
		s, _ := proofMap[key].(string)
		return s
	}

	return &Proof{
		Type:               str(ProofFieldType),
		Created:            str(ProofFieldCreated),
		VerificationMethod: str(ProofFieldVerificationMethod),
		ProofPurpose:       str(ProofFieldProofPurpose),
		ProofValue:         str(ProofFieldProofValue),
		JWS:                str(ProofFieldJWS),
		Cryptosuite:        str(ProofFieldCryptosuite),
		Challenge:          str(ProofFieldChallenge),
		Domain:             str(ProofFieldDomain),
		Raw:                proofMap,
	}, nil
}

// ParseProofs normalizes a proof property, which may be a single object or an
// array of objects, into a slice.
func ParseProofs(raw interface{}) ([]*Proof, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("proof is missing")
	case map[string]interface{}:
		p, err := ParseProof(v)
		if err != nil {
			return nil, err
		}
		return []*Proof{p}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("proof set is empty")
		}

		proofs := make([]*Proof, 0, len(v))
		for i, item := range v {
			p, err := ParseProof(item)
			if err != nil {
				return nil, fmt.Errorf("proof %d: %w", i, err)
			}
			proofs = append(proofs, p)
		}
		return proofs, nil
	case []map[string]interface{}:
		items := make([]interface{}, len(v))
		for i := range v {
			items[i] = v[i]
		}
		return ParseProofs(items)
	default:
		return nil, fmt.Errorf("invalid proof format: %T", raw)
	}
}

// Config returns the proof options: every proof property except proofValue.
func (p *Proof) Config() map[string]interface{} {
	cfg := p.ToMap()
	delete(cfg, ProofFieldProofValue)

	return cfg
}

// ToMap returns the proof as a JSON object.
func (p *Proof) ToMap() map[string]interface{} {
	m := make(map[string]interface{})
	if p.Raw != nil {
		maps.Copy(m, p.Raw)
	}

	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}

	set(ProofFieldType, p.Type)
	set(ProofFieldCreated, p.Created)
	set(ProofFieldVerificationMethod, p.VerificationMethod)
	set(ProofFieldProofPurpose, p.ProofPurpose)
	set(ProofFieldProofValue, p.ProofValue)
	set(ProofFieldJWS, p.JWS)
	set(ProofFieldCryptosuite, p.Cryptosuite)
	set(ProofFieldChallenge, p.Challenge)
	set(ProofFieldDomain, p.Domain)

	return m
}
