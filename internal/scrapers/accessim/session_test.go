package accessim

import (
	"testing"

	"curriculum-scraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestSessionNotInitialized(t *testing.T) {
	session := NewSession(SessionOptions{}, telemetry.NewRecordingAPI())

	_, err := session.Page()
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
}

func TestSessionCredentials(t *testing.T) {
	session := NewSession(SessionOptions{}, telemetry.NewRecordingAPI())
	require.True(t, session.Credentials().Empty())

	session.SetCredentials(testCreds)
	require.Equal(t, testCreds, session.Credentials())
}

func TestSessionOptionsDefaults(t *testing.T) {
	opts := SessionOptions{}.withDefaults()
	require.Equal(t, DefaultUserAgent, opts.UserAgent)
	require.Equal(t, DefaultTimeout, opts.Timeout)
	require.Equal(t, DefaultDebugSlowMo, opts.SlowMo)

	opts = SessionOptions{UserAgent: "bot", Timeout: DefaultSettleDelay}.withDefaults()
	require.Equal(t, "bot", opts.UserAgent)
	require.Equal(t, DefaultSettleDelay, opts.Timeout)
}
