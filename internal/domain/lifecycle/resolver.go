package lifecycle

import (
	"strings"

	"github.com/okian/suggest/internal/domain/model"
)

// Metadata keys read by the Resolver.
const (
	MetadataPackage = "package"
	MetadataClass   = "class"
)

// Resolver derives stable suggestion identifiers from candidate metadata.
type Resolver struct {
	hostPackage string
}

// NewResolver creates a resolver. Suggestions owned by hostPackage are
// identified by their class instead of their package.
func NewResolver(hostPackage string) *Resolver {
	return &Resolver{hostPackage: hostPackage}
}

// Identifier never fails; missing data maps to model.UnknownIdentifier.
func (r *Resolver) Identifier(metadata map[string]string) string {
	pkg := strings.TrimSpace(metadata[MetadataPackage])
	if pkg == "" {
		return model.UnknownIdentifier
	}
	if r.hostPackage != "" && pkg == r.hostPackage {
		return model.NormalizeIdentifier(strings.TrimSpace(metadata[MetadataClass]))
	}
	return pkg
}

// Resolve returns the candidate's explicit identifier, or one derived from
// its metadata.
func (r *Resolver) Resolve(c model.Candidate) string {
	if id := strings.TrimSpace(c.Identifier); id != "" {
		return id
	}
	return r.Identifier(c.Metadata)
}
