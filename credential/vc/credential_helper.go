package vc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pilacorp/go-identity-sdk/credential/common/schema"
	"github.com/pilacorp/go-identity-sdk/credential/common/util"
)

// serializeCredentialContents serializes CredentialContents into credential data.
func serializeCredentialContents(vcc *CredentialContents) (CredentialData, error) {
	if vcc == nil {
		return nil, fmt.Errorf("credential contents is nil")
	}

	if len(vcc.Context) == 0 && vcc.ID == "" && vcc.Issuer == "" {
		return nil, fmt.Errorf("contents must have context, ID, or issuer")
	}

	vcJSON := make(CredentialData)
	if len(vcc.Context) > 0 {
		validatedContext, err := util.SerializeContexts(vcc.Context)
		if err != nil {
			return nil, fmt.Errorf("invalid @context: %w", err)
		}
		vcJSON["@context"] = validatedContext
	}
	if vcc.ID != "" {
		vcJSON["id"] = vcc.ID
	}
	if len(vcc.Types) > 0 {
		vcJSON["type"] = util.SerializeTypes(vcc.Types)
	}
	if len(vcc.Subject) > 0 {
		vcJSON["credentialSubject"] = serializeSubjects(vcc.Subject)
	}
	if vcc.Issuer != "" {
		vcJSON["issuer"] = vcc.Issuer
	}
	if len(vcc.Schemas) > 0 {
		vcJSON["credentialSchema"] = serializeSchemas(vcc.Schemas)
	}
	if len(vcc.CredentialStatus) > 0 {
		vcJSON["credentialStatus"] = serializeStatuses(vcc.CredentialStatus)
	}
	if !vcc.ValidFrom.IsZero() {
		vcJSON["validFrom"] = vcc.ValidFrom.UTC().Format(time.RFC3339)
	}
	if !vcc.ValidUntil.IsZero() {
		vcJSON["validUntil"] = vcc.ValidUntil.UTC().Format(time.RFC3339)
	}
	return vcJSON, nil
}

// serializeSubjects converts a slice of Subject structs to a JSON-LD compatible format.
func serializeSubjects(subjects []Subject) interface{} {
	if len(subjects) == 1 {
		return serializeSubject(subjects[0])
	}
	return util.MapSlice(subjects, func(s Subject) interface{} { return serializeSubject(s) })
}

// serializeSubject converts a single Subject struct to a JSON object.
func serializeSubject(subject Subject) map[string]interface{} {
	jsonObj := util.ShallowCopyObj(subject.CustomFields)
	if subject.ID != "" {
		jsonObj["id"] = subject.ID
	}
	return jsonObj
}

// serializeSchemas converts a slice of Schema structs to a JSON-LD compatible format.
func serializeSchemas(schemas []Schema) interface{} {
	if len(schemas) == 1 {
		return serializeSchema(schemas[0])
	}
	return util.MapSlice(schemas, func(s Schema) interface{} { return serializeSchema(s) })
}

// serializeSchema converts a single Schema struct to a JSON object.
func serializeSchema(schema Schema) map[string]interface{} {
	return map[string]interface{}{
		"id":   schema.ID,
		"type": schema.Type,
	}
}

// serializeStatuses converts a slice of Status structs to a JSON-LD compatible format.
func serializeStatuses(statuses []Status) interface{} {
	if len(statuses) == 1 {
		return serializeStatus(statuses[0])
	}
	return util.MapSlice(statuses, func(s Status) interface{} { return serializeStatus(s) })
}

// serializeStatus converts a single Status struct to a JSON object.
func serializeStatus(status Status) map[string]interface{} {
	result := make(map[string]interface{})
	if status.ID != "" {
		result["id"] = status.ID
	}
	if status.Type != "" {
		result["type"] = status.Type
	}
	if status.RevocationBitmapIndex != "" {
		result["revocationBitmapIndex"] = status.RevocationBitmapIndex
	}
	if status.StatusPurpose != "" {
		result["statusPurpose"] = status.StatusPurpose
	}
	if status.StatusListIndex != "" {
		result["statusListIndex"] = status.StatusListIndex
	}
	if status.StatusListCredential != "" {
		result["statusListCredential"] = status.StatusListCredential
	}
	return result
}

// parseContext extracts the @context field from a Credential.
func parseContext(c CredentialData, contents *CredentialContents) error {
	switch context := c["@context"].(type) {
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

// parseID extracts the ID field from a Credential.
func parseID(c CredentialData, contents *CredentialContents) error {
	id, err := parseStringField(c, "id")
	if err != nil {
		return err
	}
	contents.ID = id
	return nil
}

// parseTypes extracts the type field from a Credential.
func parseTypes(c CredentialData, contents *CredentialContents) error {
	switch v := c["type"].(type) {
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

// parseIssuer extracts the issuer field, given as a string or an object with an id.
func parseIssuer(c CredentialData, contents *CredentialContents) error {
	switch issuer := c["issuer"].(type) {
	case nil:
	case string:
		contents.Issuer = issuer
	case map[string]interface{}:
		id, err := parseStringField(issuer, "id")
		if err != nil {
			return fmt.Errorf("failed to parse issuer: %w", err)
		}
		contents.Issuer = id
	default:
		return fmt.Errorf("unsupported issuer format: %T", issuer)
	}
	return nil
}

// parseDates extracts validFrom and validUntil fields from a Credential.
func parseDates(c CredentialData, contents *CredentialContents) error {
	if validFrom, ok := c["validFrom"].(string); ok {
		t, err := time.Parse(time.RFC3339, validFrom)
		if err != nil {
			return fmt.Errorf("failed to parse validFrom: %w", err)
		}
		contents.ValidFrom = t
	}
	if validUntil, ok := c["validUntil"].(string); ok {
		t, err := time.Parse(time.RFC3339, validUntil)
		if err != nil {
			return fmt.Errorf("failed to parse validUntil: %w", err)
		}
		contents.ValidUntil = t
	}
	return nil
}

// parseSubject extracts the credentialSubject field from a Credential.
func parseSubject(c CredentialData, contents *CredentialContents) error {
	switch subject := c["credentialSubject"].(type) {
	case nil:
	case string:
		contents.Subject = []Subject{{ID: subject}}
	case map[string]interface{}:
		parsed, err := SubjectFromJSON(subject)
		if err != nil {
			return fmt.Errorf("failed to parse subject: %w", err)
		}
		contents.Subject = []Subject{parsed}
	case []interface{}:
		subjects := make([]Subject, 0, len(subject))
		for _, raw := range subject {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				return fmt.Errorf("unsupported subject format: %T", raw)
			}
			parsed, err := SubjectFromJSON(sub)
			if err != nil {
				return fmt.Errorf("failed to parse subjects array: %w", err)
			}
			subjects = append(subjects, parsed)
		}
		contents.Subject = subjects
	default:
		return fmt.Errorf("unsupported subject format: %T", subject)
	}
	return nil
}

// SubjectFromJSON creates a credential subject from a JSON object.
func SubjectFromJSON(subjectObj map[string]interface{}) (Subject, error) {
	flds, rest := util.SplitJSONObj(subjectObj, "id")
	id, err := parseStringField(flds, "id")
	if err != nil {
		return Subject{}, fmt.Errorf("failed to parse subject id: %w", err)
	}
	return Subject{ID: id, CustomFields: rest}, nil
}

// parseSchema extracts the credentialSchema field from a Credential.
func parseSchema(c CredentialData, contents *CredentialContents) error {
	schemaRaw := c["credentialSchema"]
	if schemaRaw == nil {
		return nil
	}

	for _, raw := range util.ToArray(schemaRaw) {
		parsed, err := parseSchemaID(raw)
		if err != nil {
			return fmt.Errorf("failed to parse schema: %w", err)
		}
		contents.Schemas = append(contents.Schemas, parsed)
	}
	return nil
}

// parseStatus extracts the credentialStatus field from a Credential.
func parseStatus(c CredentialData, contents *CredentialContents) error {
	statusRaw := c["credentialStatus"]
	if statusRaw == nil {
		return nil
	}

	for _, raw := range util.ToArray(statusRaw) {
		statusMap, ok := raw.(map[string]interface{})
		if !ok {
			return fmt.Errorf("unsupported status format: %T", raw)
		}
		contents.CredentialStatus = append(contents.CredentialStatus, parseStatusEntry(statusMap))
	}
	return nil
}

// parseStatusEntry parses a single status entry from a JSON object. Indices
// given as JSON numbers are kept in their decimal string form.
func parseStatusEntry(status map[string]interface{}) Status {
	s := Status{}
	s.ID, _ = status["id"].(string)
	s.Type, _ = status["type"].(string)
	s.StatusPurpose, _ = status["statusPurpose"].(string)
	s.StatusListCredential, _ = status["statusListCredential"].(string)
	s.StatusListIndex = indexString(status["statusListIndex"])
	s.RevocationBitmapIndex = indexString(status["revocationBitmapIndex"])
	return s
}

func indexString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// parseSchemaID parses a Schema from a value.
func parseSchemaID(value interface{}) (Schema, error) {
	var schema Schema
	switch v := value.(type) {
	case string:
		schema.ID = v
	case map[string]interface{}:
		schema.ID, _ = v["id"].(string)
		schema.Type, _ = v["type"].(string)
	default:
		return schema, fmt.Errorf("invalid schema format: %T", v)
	}
	return schema, nil
}

// parseStringField extracts a string field from a JSON object.
func parseStringField(obj map[string]interface{}, fieldName string) (string, error) {
	if value, ok := obj[fieldName]; ok {
		if str, ok := value.(string); ok {
			return str, nil
		}
		return "", fmt.Errorf("field %q must be a string, got %T", fieldName, value)
	}
	return "", nil
}

// validateCredential validates the credential against its declared schemas.
func validateCredential(m CredentialData, options *credentialOptions) error {
	if !options.isValidateSchema {
		return nil
	}

	if err := schema.ValidateCredential(m, options.schemaLoader); err != nil {
		return fmt.Errorf("failed to validate credential: %w", err)
	}

	return nil
}
