package store

import (
	"encoding/json"
	"maps"
	"slices"

	"whitecarrot/internal/errors"
)

// Patch is a partial update: top-level fields replace the stored ones.
// Keys listed as nested when applying are merged one level deep instead.
type Patch map[string]any

// applyPatch overlays patch on current and decodes the result. The id field
// can never change.
func applyPatch[T any](current T, patch Patch, nested ...string) (T, error) {
	var zero T

	raw, err := json.Marshal(current)
	if err != nil {
		return zero, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode entity", err)
	}
	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return zero, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to decode entity", err)
	}
	id := merged["id"]

	for key, value := range patch {
		inner, isMap := value.(map[string]any)
		existing, hasMap := merged[key].(map[string]any)
		if isMap && hasMap && slices.Contains(nested, key) {
			combined := maps.Clone(existing)
			maps.Copy(combined, inner)
			merged[key] = combined
			continue
		}
		merged[key] = value
	}
	merged["id"] = id

	raw, err = json.Marshal(merged)
	if err != nil {
		return zero, errors.NewValidationError(errors.ErrCodeInvalidRequest, "invalid update", err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, errors.NewValidationError(errors.ErrCodeInvalidRequest, "update does not match the entity shape", err)
	}
	return out, nil
}
