package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProvider(t *testing.T) {
	assert.Equal(t, "aws", Provider("AWS"))
	assert.Equal(t, "aws", Provider("Amazon Web Services"))
	assert.Equal(t, "azure", Provider(" Microsoft "))
	assert.Equal(t, "gcp", Provider("Google Cloud"))
	assert.Equal(t, "", Provider("oracle"))
	assert.Equal(t, "", Provider(""))
}

func TestPriorityDefaultsToMedium(t *testing.T) {
	assert.Equal(t, "medium", Priority(""))
	assert.Equal(t, "medium", Priority("urgent"))
	assert.Equal(t, "critical", Priority("CRITICAL"))
	assert.Equal(t, "low", Priority(" low "))
}

func TestParseTags(t *testing.T) {
	tags := ParseTags("Environment:production, Team:backend")
	assert.Equal(t, map[string]string{"Environment": "production", "Team": "backend"}, tags)

	assert.Equal(t, map[string]string{"standalone": "true"}, ParseTags("standalone"))
	assert.Empty(t, ParseTags(""))
	assert.Empty(t, ParseTags(" , ,"))
}

func TestDecimalOrNil(t *testing.T) {
	d := DecimalOrNil("12.50")
	if assert.NotNil(t, d) {
		assert.Equal(t, "12.5", d.String())
	}
	assert.Nil(t, DecimalOrNil(""))
	assert.Nil(t, DecimalOrNil("NaN"))
	assert.Nil(t, DecimalOrNil("twelve"))
}

func TestTimeOrNil(t *testing.T) {
	ts := TimeOrNil("2025-01-01T10:30:00Z")
	if assert.NotNil(t, ts) {
		assert.Equal(t, time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC), *ts)
	}

	// Naive timestamps are read as UTC.
	naive := TimeOrNil("2025-01-01 10:30:00")
	if assert.NotNil(t, naive) {
		assert.Equal(t, time.UTC, naive.Location())
	}

	assert.Nil(t, TimeOrNil("not a time"))
	assert.Nil(t, TimeOrNil(""))
}

func TestDateOrNil(t *testing.T) {
	d := DateOrNil("2025-01-31")
	if assert.NotNil(t, d) {
		assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *d)
	}
	assert.Nil(t, DateOrNil("2025-01-31T00:00:00Z"))
	assert.Nil(t, DateOrNil("31/01/2025"))
}

func TestSnakeCase(t *testing.T) {
	assert.Equal(t, "resource_id", SnakeCase(" Resource ID "))
	assert.Equal(t, "cost_daily", SnakeCase("Cost Daily"))
}
