package neomap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{"simple", "Sample", false},
		{"spaces inside", "Assay Type", false},
		{"unicode", "Échantillon", false},
		{"hyphen", "sub-type", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"surrounding whitespace", " Sample", true},
		{"backtick", "Sam`ple", true},
		{"newline", "Sam\nple", true},
		{"reserved", "match", true},
		{"reserved upper", "DELETE", true},
		{"too long", strings.Repeat("a", 257), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.label)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRelationshipType(t *testing.T) {
	assert.NoError(t, ValidateRelationshipType("IS_IN"))
	assert.NoError(t, ValidateRelationshipType("has sample"))
	assert.ErrorIs(t, ValidateRelationshipType(""), ErrInvalidIdentifier)
	assert.ErrorIs(t, ValidateRelationshipType("SET"), ErrInvalidIdentifier)
}

func TestValidatePropertyKeyAllowsReservedWords(t *testing.T) {
	assert.NoError(t, ValidatePropertyKey("is"))
	assert.NoError(t, ValidatePropertyKey("order"))
	assert.ErrorIs(t, ValidatePropertyKey("a`b"), ErrInvalidIdentifier)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`Assay Type`", quote("Assay Type"))
}
