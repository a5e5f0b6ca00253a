package version

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullInfo(t *testing.T) {
	info := FullInfo()
	assert.True(t, strings.HasPrefix(info, "lgrep "+Version))
	assert.Contains(t, info, "commit: "+Commit)
	assert.Contains(t, info, "id: "+BuildID())
}

func TestBuildID(t *testing.T) {
	id := BuildID()
	assert.Equal(t, id, BuildID(), "computed once")

	// Test binaries carry build info, so the id is the hashed form
	assert.Len(t, id, 12)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
}
