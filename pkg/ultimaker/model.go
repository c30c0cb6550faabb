// ABOUTME: Printer model tagged variant and lookup tables
// ABOUTME: Resolves type codes and display names to a Model
package ultimaker

import "strings"

// Model identifies a printer family
type Model int

const (
	// ModelGeneric is any printer speaking the Ultimaker API that is not otherwise known
	ModelGeneric Model = iota
	// ModelUltimaker3 is the Ultimaker 3
	ModelUltimaker3
	// ModelUltimaker3Extended is the Ultimaker 3 Extended
	ModelUltimaker3Extended
)

var typeCodes = map[string]Model{
	"9066": ModelUltimaker3,
	"9511": ModelUltimaker3Extended,
}

var variants = map[string]Model{
	"Ultimaker 3":          ModelUltimaker3,
	"Ultimaker 3 Extended": ModelUltimaker3Extended,
}

// String returns the display name of the model
func (m Model) String() string {
	switch m {
	case ModelUltimaker3:
		return "Ultimaker 3"
	case ModelUltimaker3Extended:
		return "Ultimaker 3 Extended"
	default:
		return "Ultimaker"
	}
}

// IsUltimaker3 reports whether the model belongs to the Ultimaker 3 family.
// The Extended is a taller Ultimaker 3.
func (m Model) IsUltimaker3() bool {
	return m == ModelUltimaker3 || m == ModelUltimaker3Extended
}

// ModelForType resolves a machine type code. Only the part before the first
// '.' is significant, so "9511.0" and "9511" both resolve to the Extended.
func ModelForType(code string) Model {
	prefix, _, _ := strings.Cut(code, ".")
	if m, ok := typeCodes[prefix]; ok {
		return m
	}
	return ModelGeneric
}

// ModelForVariant resolves a display name as reported by the printer's
// system API
func ModelForVariant(variant string) Model {
	if m, ok := variants[variant]; ok {
		return m
	}
	return ModelGeneric
}
