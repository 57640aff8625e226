package proof

import (
	"crypto"
	"fmt"
	"maps"

	sdkcrypto "github.com/pilacorp/go-identity-sdk/credential/common/crypto"
	"github.com/pilacorp/go-identity-sdk/credential/common/model"
)

// AddProof signs doc with the named cryptosuite and returns a copy carrying
// the new proof. Existing proofs are kept and the proof property becomes an
// array, so proofs already present stay valid.
func AddProof(doc map[string]interface{}, cryptosuite string, priv crypto.PrivateKey,
	opts sdkcrypto.ProofOptions) (map[string]interface{}, error) {
	suite, err := sdkcrypto.SuiteFor(cryptosuite)
	if err != nil {
		return nil, err
	}

	unsecured := make(map[string]interface{}, len(doc))
	maps.Copy(unsecured, doc)
	delete(unsecured, "proof")

	p, err := suite.CreateProof(unsecured, priv, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create proof: %w", err)
	}

	return AttachProof(doc, p)
}

// AttachProof returns a copy of doc carrying p alongside any proofs it already
// has. It is used for proofs signed outside the SDK.
func AttachProof(doc map[string]interface{}, p *model.Proof) (map[string]interface{}, error) {
	if p == nil || p.ProofValue == "" {
		return nil, fmt.Errorf("proof has no proofValue")
	}

	existing, hasProof := doc["proof"]

	secured := make(map[string]interface{}, len(doc)+1)
	maps.Copy(secured, doc)

	newProof := p.ToMap()

	switch v := existing.(type) {
	case nil:
		if hasProof {
			return nil, fmt.Errorf("proof property is null")
		}

		secured["proof"] = newProof
	case map[string]interface{}:
		secured["proof"] = []interface{}{v, newProof}
	case []interface{}:
		proofs := make([]interface{}, 0, len(v)+1)
		proofs = append(proofs, v...)
		secured["proof"] = append(proofs, newProof)
	default:
		return nil, fmt.Errorf("invalid proof format: %T", existing)
	}

	return secured, nil
}
