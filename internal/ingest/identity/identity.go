// Package identity derives stable row identifiers for entities that arrive
// without a caller-supplied primary key. The same namespace and component
// strings always map to the same UUID, which keeps offline dataset reruns
// idempotent even where storage enforces no natural unique constraint.
package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Namespaces are fixed forever; changing one would re-key every derived row.
var (
	NamespaceRecommendation = uuid.MustParse("1d4ab8e8-0d5e-4c1a-9a41-2a30f1a34a2c")
	NamespaceResourceCost   = uuid.MustParse("9c2f6a3e-7b41-4a8d-b5c9-5e8f0d2a713b")
)

var whitespace = regexp.MustCompile(`\s+`)

// DeriveID returns a name-based (version 5) UUID for the given namespace and
// ordered components. Components are joined with ":" after collapsing runs of
// whitespace, so cosmetic spacing differences do not change identity.
func DeriveID(namespace uuid.UUID, components ...string) string {
	base := strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(components, ":"), " "))
	return uuid.NewSHA1(namespace, []byte(base)).String()
}

// NewID returns a random surrogate identifier for first-time inserts.
func NewID() string {
	return uuid.NewString()
}
