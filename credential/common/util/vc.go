package util

import (
	"fmt"
	"maps"
)

// JSONMap represents a JSON object as a map.
type JSONMap = map[string]interface{}

// SerializeTypes returns a single type as a string and several as an array.
func SerializeTypes(types []string) interface{} {
	if len(types) == 0 {
		return nil
	}
	if len(types) == 1 {
		return types[0]
	}
	return MapSlice(types, func(t string) interface{} { return t })
}

// MapSlice transforms a slice of type T to a slice of type U using a mapping function.
func MapSlice[T any, U any](slice []T, mapFn func(T) U) []U {
	result := make([]U, 0, len(slice))
	for _, v := range slice {
		result = append(result, mapFn(v))
	}
	return result
}

// SerializeContexts validates a list of JSON-LD context entries. Entries are
// non-empty strings or context objects without a nested @context.
func SerializeContexts(contexts []interface{}) ([]interface{}, error) {
	validated := make([]interface{}, 0, len(contexts))
	for i, ctx := range contexts {
		switch v := ctx.(type) {
		case nil:
			return nil, fmt.Errorf("failed to validate context: context entry at index %d is nil", i)
		case string:
			if v == "" {
				return nil, fmt.Errorf("failed to validate context: context string at index %d is empty", i)
			}
			validated = append(validated, v)
		case JSONMap:
			if _, hasContext := v["@context"]; hasContext {
				return nil, fmt.Errorf("failed to validate context: context object at index %d must not contain nested @context", i)
			}
			for key := range v {
				if key == "" {
					return nil, fmt.Errorf("failed to validate context: context object at index %d has empty key", i)
				}
			}
			validated = append(validated, v)
		default:
			return nil, fmt.Errorf("failed to validate context: invalid context entry at index %d: must be string or map, got %T", i, v)
		}
	}
	return validated, nil
}

// ShallowCopyObj returns a copy of obj. A nil obj yields an empty map.
func ShallowCopyObj(obj JSONMap) JSONMap {
	c := make(JSONMap, len(obj))
	maps.Copy(c, obj)
	return c
}

// SplitJSONObj splits obj into the named fields and the remaining ones.
func SplitJSONObj(obj JSONMap, fields ...string) (JSONMap, JSONMap) {
	selected := make(JSONMap, len(fields))
	rest := ShallowCopyObj(obj)

	for _, f := range fields {
		if v, ok := rest[f]; ok {
			selected[f] = v
			delete(rest, f)
		}
	}

	return selected, rest
}

// ToArray returns value as an array, wrapping a single value.
func ToArray(value interface{}) []interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case []interface{}:
		return v
	default:
		return []interface{}{v}
	}
}
