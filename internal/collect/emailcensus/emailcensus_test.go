package emailcensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesAny(t *testing.T) {
	phrases := []string{"job alert", "new jobs for"}

	assert.True(t, matchesAny("Job Alert: 12 new data analyst roles", phrases))
	assert.True(t, matchesAny("New jobs for software engineer in Austin", phrases))
	assert.False(t, matchesAny("Your weekly newsletter", phrases))
	assert.False(t, matchesAny("Job Alert: anything", nil))
}
