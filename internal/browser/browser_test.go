package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Headless, "headless by default")
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, 1080, opts.ViewportHeight)
	assert.Equal(t, "en-US", opts.Locale)
	assert.Contains(t, DefaultUserAgents, opts.UserAgent)
}

func TestPickUserAgent(t *testing.T) {
	t.Run("picks from the given list", func(t *testing.T) {
		agents := []string{"agent-a", "agent-b"}
		for i := 0; i < 20; i++ {
			assert.Contains(t, agents, PickUserAgent(agents))
		}
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		assert.Contains(t, DefaultUserAgents, PickUserAgent(nil))
	})
}

func TestLoginRequiresCredentials(t *testing.T) {
	s := &Session{}

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"empty", Credentials{}},
		{"no password", Credentials{Username: "user"}},
		{"no username", Credentials{Password: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Login(context.Background(), tt.creds, LoginOptions{BaseURL: "https://example.com"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrLoginFailed)
		})
	}
}

func TestHomeURLPattern(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.nywd.com/home", true},
		{"https://www.nywd.com/home?welcome=1", true},
		{"https://www.nywd.com/home/", true},
		{"https://www.nywd.com/login", false},
		{"https://www.nywd.com/homepage", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, homeURL.MatchString(tt.url))
		})
	}
}
