package cooldown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConverter(t *testing.T) {
	conv := NewConverter()

	fragment := `
		<h2>Compare</h2>
		<p>Solve <span class="math-placeholder">[Math Expression 1]</span> for <strong>x</strong>.</p>
		<ul><li>one</li><li>two</li></ul>
		<p>A <span>plain span</span> stays.</p>
	`
	out, err := conv.Convert(fragment)
	require.NoError(t, err)
	require.Contains(t, out, "## Compare")
	require.Contains(t, out, "[Math Expression 1]")
	require.NotContains(t, out, `\[Math Expression 1\]`)
	require.Contains(t, out, "**x**")
	require.Contains(t, out, "- one")
	require.Contains(t, out, "plain span")
	require.Equal(t, strings.TrimSpace(out), out)

	again, err := conv.Convert(fragment)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestConverterEmpty(t *testing.T) {
	out, err := NewConverter().Convert("   \n ")
	require.NoError(t, err)
	require.Equal(t, "", out)
}
