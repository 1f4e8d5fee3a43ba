package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeriveIDIsStable(t *testing.T) {
	a := DeriveID(NamespaceRecommendation, "org-1", "aws", "i-0abc", "rightsizing", "Downsize to t3.small")
	b := DeriveID(NamespaceRecommendation, "org-1", "aws", "i-0abc", "rightsizing", "Downsize to t3.small")
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestDeriveIDChangesWithAnyComponent(t *testing.T) {
	base := DeriveID(NamespaceRecommendation, "org-1", "aws", "i-0abc", "rightsizing", "desc")
	assert.NotEqual(t, base, DeriveID(NamespaceRecommendation, "org-2", "aws", "i-0abc", "rightsizing", "desc"))
	assert.NotEqual(t, base, DeriveID(NamespaceRecommendation, "org-1", "gcp", "i-0abc", "rightsizing", "desc"))
	assert.NotEqual(t, base, DeriveID(NamespaceRecommendation, "org-1", "aws", "i-0abc", "idle", "desc"))
	assert.NotEqual(t, base, DeriveID(NamespaceResourceCost, "org-1", "aws", "i-0abc", "rightsizing", "desc"))
}

func TestDeriveIDCollapsesWhitespace(t *testing.T) {
	a := DeriveID(NamespaceRecommendation, "org-1", "some   description\twith spaces")
	b := DeriveID(NamespaceRecommendation, "org-1", "some description with spaces")
	assert.Equal(t, a, b)
}
