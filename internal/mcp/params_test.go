package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrepParams_FlagKeys(t *testing.T) {
	var p GrepParams
	require.NoError(t, json.Unmarshal([]byte(`{
		"pattern": "foo", "path": "src", "glob": "*.go", "output_mode": "content",
		"-B": 1, "-A": 2, "-C": 3, "-n": true, "-i": true,
		"type": "go", "head_limit": 10, "multiline": true, "timeout": 1.5
	}`), &p))

	assert.Equal(t, "foo", p.Pattern)
	assert.Equal(t, 1, *p.Before)
	assert.Equal(t, 2, *p.After)
	assert.Equal(t, 3, *p.Context)
	assert.True(t, *p.LineNumbers)
	assert.True(t, *p.CaseInsensitive)
	assert.Equal(t, TypeList{"go"}, p.Type)
	assert.Equal(t, 10, *p.HeadLimit)
	assert.True(t, *p.Multiline)
	assert.Equal(t, 1.5, *p.Timeout)
	assert.Empty(t, p.Warnings)

	raw := p.RawOptions()
	assert.Equal(t, "src", raw.Path)
	assert.Equal(t, []string{"go"}, raw.Types)
	assert.Nil(t, raw.Hidden)
}

func TestTypeList(t *testing.T) {
	tests := []struct {
		in      string
		want    TypeList
		wantErr bool
	}{
		{`"py"`, TypeList{"py"}, false},
		{`["js", "ts"]`, TypeList{"js", "ts"}, false},
		{`""`, nil, false},
		{`null`, nil, false},
		{`3`, nil, true},
		{`[1]`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got TypeList
			err := json.Unmarshal([]byte(tt.in), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrepParams_Aliases(t *testing.T) {
	var p GrepParams
	require.NoError(t, json.Unmarshal([]byte(`{
		"query": "foo", "case_insensitive": true, "context": 2, "types": ["rust"], "zzz": 1
	}`), &p))

	assert.Equal(t, "foo", p.Pattern)
	assert.True(t, *p.CaseInsensitive)
	assert.Equal(t, 2, *p.Context)
	assert.Equal(t, TypeList{"rust"}, p.Type)
	assert.Equal(t, []string{
		"parameter 'case_insensitive' is an alias, use '-i' instead",
		"parameter 'context' is an alias, use '-C' instead",
		"parameter 'query' is an alias, use 'pattern' instead",
		"parameter 'types' is an alias, use 'type' instead",
		"unknown parameter 'zzz' ignored",
	}, p.Warnings)
}

func TestGrepParams_CanonicalKeyWinsOverAlias(t *testing.T) {
	var p GrepParams
	require.NoError(t, json.Unmarshal([]byte(`{"pattern": "a", "query": "b"}`), &p))
	assert.Equal(t, "a", p.Pattern)
	assert.Equal(t, []string{"parameter 'query' ignored: 'pattern' is also set"}, p.Warnings)
}

func TestGrepParams_NotAnObject(t *testing.T) {
	var p GrepParams
	assert.Error(t, json.Unmarshal([]byte(`["foo"]`), &p))
}
