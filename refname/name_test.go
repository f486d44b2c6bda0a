package refname

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFull_Valid(t *testing.T) {
	cases := []string{"HEAD", "refs/heads/main", "refs/tags/v1.2.3", "refs/remotes/origin/HEAD"}
	for _, s := range cases {
		n, err := NewFull(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String())
	}
}

func TestNewFull_Invalid(t *testing.T) {
	cases := []string{
		"",
		"refs/heads/../main",
		"/refs/heads/main",
		"refs/heads/main/",
		"refs/heads//main",
		"refs/heads/main.lock",
		"refs/heads/.main",
		"refs/heads/main.",
		"refs/heads/ma in",
		"main",
		"refs/heads/ma\x00in",
	}
	for _, s := range cases {
		_, err := NewFull(s)
		assert.ErrorIs(t, err, ErrInvalidName, s)
	}
}

func TestNewPartial_AllowsShortNames(t *testing.T) {
	n, err := NewPartial("main")
	require.NoError(t, err)
	assert.Equal(t, "main", n.String())
}

func TestFullName_Equal(t *testing.T) {
	a, _ := NewFull("refs/heads/main")
	b, _ := NewFull("refs/heads/main")
	c, _ := NewFull("refs/heads/dev")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
