// Package validation checks decoded configuration values against a schema.
// Validation walks the whole value and accumulates every finding instead of
// stopping at the first error.
package validation

import (
	"fmt"
	"math"

	"github.com/hemmer-sh/provider-sdk/schema"
)

// Validate checks value against s and returns all diagnostics found. A nil
// or empty result means the value conforms to the schema.
func Validate(s schema.Schema, value any) schema.Diagnostics {
	var diags schema.Diagnostics
	validateBlock(s.Block, value, "", &diags)
	return diags
}

// IsValid reports whether value passes validation with no error-severity
// diagnostics. Warnings do not fail validation.
func IsValid(s schema.Schema, value any) bool {
	return !Validate(s, value).HasErrors()
}

// ValidateOrError validates value and converts error diagnostics into a
// single error. Callers that want the structured findings use Validate.
func ValidateOrError(s schema.Schema, value any) error {
	diags := Validate(s, value)
	errs := diags.Errors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed: %s", errs[0].Summary)
}

func validateBlock(block schema.Block, value any, path string, diags *schema.Diagnostics) {
	// A null value is an absent configuration, which is valid as a whole;
	// required attributes are only checked inside a present object.
	if value == nil {
		return
	}

	obj, ok := value.(map[string]any)
	if !ok {
		*diags = append(*diags, schema.ErrorDiag("Expected object").
			WithDetail(fmt.Sprintf("Expected object, got %s", valueTypeName(value))).
			WithAttribute(path))
		return
	}

	for name, attr := range block.Attributes {
		validateAttribute(name, attr, obj, path, diags)
	}
	for name, nested := range block.Blocks {
		validateNestedBlock(name, nested, obj, path, diags)
	}
}

func validateAttribute(name string, attr schema.Attribute, obj map[string]any, path string, diags *schema.Diagnostics) {
	// Computed-only attributes are set by the provider, not the caller.
	if attr.Flags.Computed && !attr.Flags.Required && !attr.Flags.Optional {
		return
	}

	attrPath := joinPath(path, name)
	value, present := obj[name]
	if !present || value == nil {
		if attr.Flags.Required {
			*diags = append(*diags, schema.ErrorDiag(
				fmt.Sprintf("Missing required attribute '%s'", attrPath)).
				WithDetail(fmt.Sprintf("The attribute '%s' is required but was not provided", attrPath)).
				WithAttribute(attrPath))
		}
		return
	}

	validateType(attr.Type, value, attrPath, diags)
}

func validateType(t schema.AttributeType, value any, path string, diags *schema.Diagnostics) {
	switch t.Kind {
	case schema.KindDynamic:
		return

	case schema.KindString:
		if _, ok := value.(string); !ok {
			appendTypeMismatch(diags, path, "string", value)
		}

	case schema.KindBool:
		if _, ok := value.(bool); !ok {
			appendTypeMismatch(diags, path, "bool", value)
		}

	case schema.KindInt64:
		if !isInt64(value) {
			appendTypeMismatch(diags, path, "int64", value)
		}

	case schema.KindFloat64:
		if !isNumber(value) {
			appendTypeMismatch(diags, path, "float64", value)
		}

	case schema.KindList, schema.KindSet:
		items, ok := value.([]any)
		if !ok {
			appendTypeMismatch(diags, path, string(t.Kind), value)
			return
		}
		if t.Elem == nil {
			return
		}
		for i, item := range items {
			validateType(*t.Elem, item, fmt.Sprintf("%s.%d", path, i), diags)
		}

	case schema.KindMap:
		entries, ok := value.(map[string]any)
		if !ok {
			appendTypeMismatch(diags, path, "map", value)
			return
		}
		if t.Elem == nil {
			return
		}
		for key, item := range entries {
			validateType(*t.Elem, item, joinPath(path, key), diags)
		}

	case schema.KindObject:
		fields, ok := value.(map[string]any)
		if !ok {
			appendTypeMismatch(diags, path, "object", value)
			return
		}
		// Object fields are validated when present; absence is allowed.
		for name, fieldType := range t.Attrs {
			if fieldValue, present := fields[name]; present {
				validateType(fieldType, fieldValue, joinPath(path, name), diags)
			}
		}
	}
}

func validateNestedBlock(name string, nested schema.NestedBlock, obj map[string]any, path string, diags *schema.Diagnostics) {
	blockPath := joinPath(path, name)
	value, present := obj[name]

	switch nested.NestingMode {
	case schema.NestingSingle:
		if !present || value == nil {
			if nested.MinItems > 0 {
				*diags = append(*diags, schema.ErrorDiag(
					fmt.Sprintf("Missing required block '%s'", blockPath)).
					WithDetail("At least one block is required").
					WithAttribute(blockPath))
			}
			return
		}
		checkItemCount(name, nested, 1, blockPath, diags)
		validateBlock(nested.Block, value, blockPath, diags)

	case schema.NestingList, schema.NestingSet:
		if !present || value == nil {
			checkItemCount(name, nested, 0, blockPath, diags)
			return
		}
		items, ok := value.([]any)
		if !ok {
			*diags = append(*diags, schema.ErrorDiag(
				fmt.Sprintf("Expected list for block '%s'", blockPath)).
				WithDetail(fmt.Sprintf("Expected list, got %s", valueTypeName(value))).
				WithAttribute(blockPath))
			return
		}
		checkItemCount(name, nested, uint(len(items)), blockPath, diags)
		for i, item := range items {
			validateBlock(nested.Block, item, fmt.Sprintf("%s.%d", blockPath, i), diags)
		}

	case schema.NestingMap:
		if !present || value == nil {
			checkItemCount(name, nested, 0, blockPath, diags)
			return
		}
		entries, ok := value.(map[string]any)
		if !ok {
			*diags = append(*diags, schema.ErrorDiag(
				fmt.Sprintf("Expected map for block '%s'", blockPath)).
				WithDetail(fmt.Sprintf("Expected map, got %s", valueTypeName(value))).
				WithAttribute(blockPath))
			return
		}
		checkItemCount(name, nested, uint(len(entries)), blockPath, diags)
		for key, item := range entries {
			validateBlock(nested.Block, item, joinPath(blockPath, key), diags)
		}
	}
}

func checkItemCount(name string, nested schema.NestedBlock, count uint, path string, diags *schema.Diagnostics) {
	if count < nested.MinItems {
		*diags = append(*diags, schema.ErrorDiag(
			fmt.Sprintf("Block '%s' requires at least %d item(s), got %d", name, nested.MinItems, count)).
			WithAttribute(path))
	}
	if nested.MaxItems > 0 && count > nested.MaxItems {
		*diags = append(*diags, schema.ErrorDiag(
			fmt.Sprintf("Block '%s' allows at most %d item(s), got %d", name, nested.MaxItems, count)).
			WithAttribute(path))
	}
}

func appendTypeMismatch(diags *schema.Diagnostics, path, expected string, value any) {
	*diags = append(*diags, schema.ErrorDiag(
		fmt.Sprintf("Invalid type for attribute '%s'", path)).
		WithDetail(fmt.Sprintf("Expected %s, got %s", expected, valueTypeName(value))).
		WithAttribute(path))
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// isInt64 accepts JSON numbers that carry an integral value. encoding/json
// decodes every number as float64, so 42 arrives as 42.0 and must pass.
func isInt64(value any) bool {
	switch v := value.(type) {
	case float64:
		return v == math.Trunc(v) && !math.IsInf(v, 0)
	case int, int32, int64:
		return true
	default:
		return false
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case float64, int, int32, int64:
		return true
	default:
		return false
	}
}

func valueTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int32, int64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return "unknown"
	}
}
