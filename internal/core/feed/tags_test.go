package feed

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  Tags
	}{
		{"nil", nil, Tags{}},
		{"native slice", []string{"go", " sql ", "go", ""}, Tags{"go", "sql"}},
		{"decoded json array", []any{"a", "b"}, Tags{"a", "b"}},
		{"json array string", `["music","art"]`, Tags{"music", "art"}},
		{"comma separated", "music, art ,,music", Tags{"music", "art"}},
		{"postgres literal", `{music,"street art"}`, Tags{"music", "street art"}},
		{"empty string", "  ", Tags{}},
		{"bytes", []byte("x,y"), Tags{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTags_Rejects(t *testing.T) {
	_, err := NormalizeTags([]any{"ok", 3})
	assert.Error(t, err)

	_, err = NormalizeTags(`["unterminated"`)
	assert.Error(t, err)

	_, err = NormalizeTags(42)
	assert.Error(t, err)
}

func TestTags_UnmarshalJSON(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","tags":"[\"a\",\"b\"]"}`), &p))
	assert.Equal(t, Tags{"a", "b"}, p.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","tags":"a,b,a"}`), &p))
	assert.Equal(t, Tags{"a", "b"}, p.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","tags":["b","a"]}`), &p))
	assert.Equal(t, Tags{"b", "a"}, p.Tags)
	assert.True(t, p.Tags.Has("a"))
	assert.False(t, p.Tags.Has("c"))
}

func TestValidateBody(t *testing.T) {
	body, err := ValidateBody("  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", body)

	_, err = ValidateBody(" \n\t ")
	assert.ErrorIs(t, err, ErrBodyEmpty)

	_, err = ValidateBody(strings.Repeat("é", MaxBodyGraphemes))
	assert.NoError(t, err)

	_, err = ValidateBody(strings.Repeat("a", MaxBodyGraphemes+1))
	assert.ErrorIs(t, err, ErrBodyTooLong)
}
