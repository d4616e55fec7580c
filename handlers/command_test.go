package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newSlashCommandRequest(text string) *http.Request {
	form := url.Values{}
	form.Set("command", "/relay")
	form.Set("team_id", "T1")
	form.Set("user_id", "U2")
	form.Set("channel_id", "C1")
	form.Set("text", text)
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSlashCommand(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	testCases := []struct {
		name     string
		text     string
		expected string
	}{
		{"login", "login to github", "<" + testBaseURL + "/github-auth?team_id=T1&user_id=U2|connect to your github account>"},
		{"typo", "login to gihub", "Did you mean `login to github`?"},
		{"repo before linking", "repo:api", "Link your GitHub account first: say `login to github`"},
		{"unknown", "help", commandUsage},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.serve(newSlashCommandRequest(tc.text))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.expected, w.Body.String())
		})
	}
}

func TestSlashCommand_Signature(t *testing.T) {
	env := setupTestEnv(t, envOptions{signingSecret: "signing"})

	unsigned := env.serve(newSlashCommandRequest("login to github"))
	assert.Equal(t, http.StatusUnauthorized, unsigned.Code)

	req := newSlashCommandRequest("login to github")
	signSlackRequest(t, req, "signing")
	signed := env.serve(req)
	assert.Equal(t, http.StatusOK, signed.Code)
	assert.Contains(t, signed.Body.String(), "connect to your github account")
}
