package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	sdkerrors "github.com/pilacorp/go-identity-sdk/credential/common/errors"
)

// Loader returns the JSON schema identified by id.
type Loader func(id string) (gojsonschema.JSONLoader, error)

// ReferenceLoader fetches schemas by their id URL.
func ReferenceLoader(id string) (gojsonschema.JSONLoader, error) {
	return gojsonschema.NewReferenceLoader(id), nil
}

// StaticLoader serves schemas from memory, keyed by schema id.
func StaticLoader(schemas map[string]string) Loader {
	return func(id string) (gojsonschema.JSONLoader, error) {
		schema, ok := schemas[id]
		if !ok {
			return nil, fmt.Errorf("schema %s is not registered", id)
		}

		return gojsonschema.NewStringLoader(schema), nil
	}
}

// ValidateCredential validates credential against every schema listed in its
// credentialSchema property. A credential without credentialSchema is valid.
func ValidateCredential(credential map[string]interface{}, loader Loader) error {
	if loader == nil {
		loader = ReferenceLoader
	}

	ids, err := schemaIDs(credential["credentialSchema"])
	if err != nil {
		return err
	}

	for _, id := range ids {
		schemaLoader, err := loader(id)
		if err != nil {
			return sdkerrors.Wrap(sdkerrors.ErrSchemaInvalid, "", id, fmt.Errorf("failed to load schema: %w", err))
		}

		result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(credential))
		if err != nil {
			return sdkerrors.Wrap(sdkerrors.ErrSchemaInvalid, "", id, fmt.Errorf("schema validation: %w", err))
		}

		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}

			return sdkerrors.Wrap(sdkerrors.ErrSchemaInvalid, "", id,
				fmt.Errorf("credential is invalid: %s", strings.Join(msgs, "; ")))
		}
	}

	return nil
}

func schemaIDs(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		id, ok := v["id"].(string)
		if !ok || id == "" {
			return nil, sdkerrors.Newf(sdkerrors.ErrGuard, "credentialSchema.id is required")
		}

		return []string{id}, nil
	case []interface{}:
		var ids []string

		for _, item := range v {
			itemIDs, err := schemaIDs(item)
			if err != nil {
				return nil, err
			}

			ids = append(ids, itemIDs...)
		}

		return ids, nil
	default:
		return nil, sdkerrors.Newf(sdkerrors.ErrDecode, "credentialSchema must be an object or array, got %T", raw)
	}
}
