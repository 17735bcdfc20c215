package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "v1.2.3", Normalize("1.2.3"))
	assert.Equal(t, "v1.2.3", Normalize(" v1.2.3 "))
}

func TestCheckCompatible(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		wantErr  bool
	}{
		{"empty is accepted", "", false},
		{"same version", "v1.0.0", false},
		{"without prefix", "1.0", false},
		{"older patch", "1.0.0-rc1", false},
		{"newer minor", "1.3.0", true},
		{"other major", "2.0.0", true},
		{"garbage", "latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatible(tt.declared, "v1.0.0")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
