package stage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStepID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "valid simple ID",
			input: "fetch:archive:llvm",
		},
		{
			name:  "valid with version dots",
			input: "unpack:archive:cfe-4.0.1.src",
		},
		{
			name:  "valid with hyphens",
			input: "configure:cmake:clang-tools-extra",
		},
		{
			name:  "valid single segment",
			input: "probe",
		},
		{
			name:  "trims whitespace",
			input: "  build:ninja:ast-extractor ",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: ErrEmptyStepID,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: ErrEmptyStepID,
		},
		{
			name:    "contains spaces",
			input:   "fetch archive llvm",
			wantErr: ErrInvalidStepID,
		},
		{
			name:    "starts with colon",
			input:   ":archive:llvm",
			wantErr: ErrInvalidStepID,
		},
		{
			name:    "ends with colon",
			input:   "fetch:archive:",
			wantErr: ErrInvalidStepID,
		},
		{
			name:    "empty segment",
			input:   "fetch::llvm",
			wantErr: ErrInvalidStepID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := NewStepID(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.input), id.String())
			assert.False(t, id.IsZero())
		})
	}
}

func TestStepID_Stage(t *testing.T) {
	assert.Equal(t, "fetch", MustNewStepID("fetch:archive:llvm").Stage())
	assert.Equal(t, "probe", MustNewStepID("probe").Stage())
}

func TestStepID_Equals(t *testing.T) {
	a := MustNewStepID("patch:cmake:extra")
	b := MustNewStepID("patch:cmake:extra")
	c := MustNewStepID("patch:cmake:other")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestMustNewStepID_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNewStepID("bad id") })
}
