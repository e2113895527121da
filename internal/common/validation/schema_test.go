package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rowSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"year": {"type": "string"},
			"revenue": {"type": ["number", "string", "null"]}
		}
	}
}`

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(rowSchema)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantErr   bool
	}{
		{"valid rows", `[{"year":"2024-2025","revenue":10}]`, true, false},
		{"string revenue", `[{"year":"2024-2025","revenue":"10"}]`, true, false},
		{"object is not an array", `{"year":"2024-2025"}`, false, false},
		{"bad revenue type", `[{"revenue":true}]`, false, false},
		{"malformed json", `[{`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Validate([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				assert.NotEmpty(t, res.Messages())
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}
