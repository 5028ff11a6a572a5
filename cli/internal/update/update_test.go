package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name       string
		client     string
		gateway    string
		compatible bool
	}{
		{"same version", "1.0.0", "1.0.0", true},
		{"newer minor gateway", "1.0.0", "1.4.2", true},
		{"older than minimum", "1.0.0", "0.9.0", false},
		{"next major", "1.2.0", "2.0.0", false},
		{"unversioned gateway", "1.0.0", "", true},
		{"dev gateway", "1.0.0", "dev", true},
		{"dev client", "dev", "3.1.0", true},
		{"v prefix", "1.0.0", "v1.1.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CheckCompatibility(tt.client, tt.gateway)
			require.NoError(t, err)
			assert.Equal(t, tt.compatible, c.Compatible, c.Reason)
			if !tt.compatible {
				assert.NotEmpty(t, c.Reason)
			}
		})
	}
}

func TestCheckCompatibilityRejectsGarbage(t *testing.T) {
	_, err := CheckCompatibility("1.0.0", "not-a-version")
	assert.Error(t, err)
}
