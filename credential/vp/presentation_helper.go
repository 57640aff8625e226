package vp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pilacorp/go-identity-sdk/credential/common/util"
	"github.com/pilacorp/go-identity-sdk/credential/vc"
)

// verifyCredentials verifies every credential embedded in a presentation.
func verifyCredentials(ctx context.Context, data PresentationData, options *presentationOptions) error {
	contents, err := ParsePresentationContents(data)
	if err != nil {
		return err
	}

	for i, credential := range contents.VerifiableCredentials {
		if err := credential.Verify(ctx, vc.WithResolver(options.getResolver())); err != nil {
			return fmt.Errorf("failed to verify credential at index %d: %w", i, err)
		}
	}

	return nil
}

// serializePresentationContents serializes PresentationContents into
// presentation data. Credentials keep their native format: a JWT string or a
// secured JSON object.
func serializePresentationContents(vpc *PresentationContents) (PresentationData, error) {
	if vpc == nil {
		return nil, fmt.Errorf("presentation contents is nil")
	}

	if len(vpc.Context) == 0 && vpc.ID == "" && vpc.Holder == "" {
		return nil, fmt.Errorf("contents must have context, ID, or holder")
	}

	vpJSON := make(PresentationData)

	if len(vpc.Context) > 0 {
		validatedContext, err := util.SerializeContexts(vpc.Context)
		if err != nil {
			return nil, fmt.Errorf("invalid @context: %w", err)
		}
		vpJSON["@context"] = validatedContext
	}
	if vpc.ID != "" {
		vpJSON["id"] = vpc.ID
	}
	if len(vpc.Types) > 0 {
		vpJSON["type"] = util.SerializeTypes(vpc.Types)
	}
	if vpc.Holder != "" {
		vpJSON["holder"] = vpc.Holder
	}
	if len(vpc.VerifiableCredentials) > 0 {
		credentials := make([]interface{}, 0, len(vpc.VerifiableCredentials))
		for i, credential := range vpc.VerifiableCredentials {
			if credential == nil {
				return nil, fmt.Errorf("credential at index %d is nil", i)
			}

			serialized, err := credential.Serialize()
			if err != nil {
				return nil, fmt.Errorf("failed to serialize credential at index %d: %w", i, err)
			}
			credentials = append(credentials, serialized)
		}
		vpJSON["verifiableCredential"] = credentials
	}

	return vpJSON, nil
}

// parseContext extracts the @context field from a Presentation.
func parseContext(vp PresentationData, contents *PresentationContents) error {
	switch context := vp["@context"].(type) {
	case nil:
	case string:
		contents.Context = append(contents.Context, context)
	case []interface{}:
		for _, ctx := range context {
			switch v := ctx.(type) {
			case string, map[string]interface{}:
				contents.Context = append(contents.Context, v)
			default:
				return fmt.Errorf("unsupported context type: %T", v)
			}
		}
	default:
		return fmt.Errorf("unsupported @context: %T", context)
	}
	return nil
}

// parseID extracts the ID field from a Presentation.
func parseID(vp PresentationData, contents *PresentationContents) error {
	if id, ok := vp["id"].(string); ok {
		contents.ID = id
	}
	return nil
}

// parseTypes extracts the type field from a Presentation.
func parseTypes(vp PresentationData, contents *PresentationContents) error {
	switch v := vp["type"].(type) {
	case nil:
	case string:
		contents.Types = append(contents.Types, v)
	case []interface{}:
		for _, t := range v {
			if typeStr, ok := t.(string); ok {
				contents.Types = append(contents.Types, typeStr)
			}
		}
	default:
		return fmt.Errorf("unsupported type field: %T", v)
	}
	return nil
}

// parseHolder extracts the holder field, given as a string or an object with an id.
func parseHolder(vp PresentationData, contents *PresentationContents) error {
	switch holder := vp["holder"].(type) {
	case nil:
	case string:
		contents.Holder = holder
	case map[string]interface{}:
		contents.Holder, _ = holder["id"].(string)
	default:
		return fmt.Errorf("unsupported holder format: %T", holder)
	}
	return nil
}

// parseVerifiableCredentials extracts the verifiableCredential field. Entries
// are JWT strings or secured JSON objects.
func parseVerifiableCredentials(vp PresentationData, contents *PresentationContents) error {
	for i, item := range util.ToArray(vp["verifiableCredential"]) {
		var raw []byte
		switch v := item.(type) {
		case string:
			raw = []byte(v)
		case map[string]interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("failed to marshal credential at index %d: %w", i, err)
			}
			raw = b
		default:
			return fmt.Errorf("unsupported credential format at index %d: %T", i, item)
		}

		credential, err := vc.ParseCredential(raw)
		if err != nil {
			return fmt.Errorf("failed to parse credential at index %d: %w", i, err)
		}
		contents.VerifiableCredentials = append(contents.VerifiableCredentials, credential)
	}
	return nil
}
