package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-mention-relay/models"
)

func TestSlackInstall_Redirect(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.serve(httptest.NewRequest(http.MethodGet, "/slack/install", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://slack.com/oauth/v2/authorize"))
}

func TestSlackOAuth_Success(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	env.Installer.Team = &models.TeamRecord{SlackTeamID: "T2", TeamName: "globex", BotToken: "xoxb-2", BotUserID: "UBOT2"}

	w := env.serve(httptest.NewRequest(http.MethodGet, "/slack/oauth?code=abc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Success!", w.Body.String())

	team, err := env.Dir.GetTeam(context.Background(), "T2")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-2", team.BotToken)
	_, online := env.Sessions.Get("T2")
	assert.True(t, online)
}

func TestSlackOAuth_Failure(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	env.Installer.Err = errors.New("invalid_code")

	w := env.serve(httptest.NewRequest(http.MethodGet, "/slack/oauth?code=abc", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ERROR: invalid_code", w.Body.String())
	assert.Equal(t, 0, env.Sessions.Len())
}

func TestSlackOAuth_Denied(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.serve(httptest.NewRequest(http.MethodGet, "/slack/oauth?error=access_denied", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "ERROR: access_denied", w.Body.String())
}
