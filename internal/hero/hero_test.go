package hero

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersisted(t *testing.T) {
	assert.False(t, Hero{Name: "Dr. Nice"}.Persisted())
	assert.True(t, Hero{ID: 12, Name: "Dr. Nice"}.Persisted())
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"Magneta", false},
		{"  Magma  ", false},
		{"", true},
		{"   ", true},
		{"\t\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_TrimsName(t *testing.T) {
	h := Hero{ID: 3, Name: "  Tornado "}
	require.NoError(t, h.Validate())
	assert.Equal(t, "Tornado", h.Name)
}

func TestValidate_BlankName(t *testing.T) {
	h := Hero{Name: "   "}
	assert.ErrorIs(t, h.Validate(), ErrInvalidName)
}

func TestValidate_NegativeID(t *testing.T) {
	h := Hero{ID: -1, Name: "Narco"}
	assert.Error(t, h.Validate())
}

func TestString(t *testing.T) {
	assert.Equal(t, "12 Dr. Nice", Hero{ID: 12, Name: "Dr. Nice"}.String())
}
