package app

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"agency-scheduler/internal/config"
)

func TestNewGoogleCalendarUnconfigured(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	assert.Nil(t, NewGoogleCalendar(config.GoogleConfig{}, NewMemoryStore(), &logger))
	assert.Nil(t, NewGoogleCalendar(config.GoogleConfig{ClientID: "cid"}, NewMemoryStore(), &logger))

	gcal := NewGoogleCalendar(config.GoogleConfig{
		ClientID:     "cid",
		ClientSecret: "cs",
		RedirectURL:  "http://localhost/oauth2callback",
	}, NewMemoryStore(), &logger)
	assert.NotNil(t, gcal)
}

func TestUserIDFromState(t *testing.T) {
	cases := []struct {
		state string
		want  string
	}{
		{"user_u1_1767600000", "u1"},
		{"user_abc_def_1767600000", "abc_def"},
		{"user__1767600000", ""},
		{"user_u1", ""},
		{"garbage", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, userIDFromState(tc.state), "state %q", tc.state)
	}
}
