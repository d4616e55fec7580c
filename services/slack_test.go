package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-mention-relay/models"
)

func newTestSlackSession() *SlackSession {
	return NewSlackSession(models.TeamRecord{SlackTeamID: "T1", BotToken: "xoxb-test", BotUserID: "UBOT"})
}

func TestSlackSession_ListMembers(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/users.list").
		Reply(200).
		JSON(map[string]interface{}{
			"ok": true,
			"members": []map[string]interface{}{
				{"id": "U1", "name": "alice"},
				{"id": "U2", "name": "gone", "deleted": true},
				{"id": "UBOT", "name": "relay", "is_bot": true},
				{"id": "USLACKBOT", "name": "slackbot"},
				{"id": "U3", "name": "carol"},
			},
			"response_metadata": map[string]interface{}{"next_cursor": ""},
		})

	members, err := newTestSlackSession().ListMembers(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []Member{{ID: "U1", Name: "alice"}, {ID: "U3", Name: "carol"}}, members)
	assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")
}

func TestSlackSession_ListMembersError(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/users.list").
		Reply(200).
		JSON(map[string]interface{}{"ok": false, "error": "invalid_auth"})

	_, err := newTestSlackSession().ListMembers(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_auth")
}

func TestSlackSession_DirectMessage(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/conversations.open").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":      true,
			"channel": map[string]interface{}{"id": "D123"},
		})
	gock.New("https://slack.com").
		Post("/api/chat.postMessage").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":      true,
			"channel": "D123",
			"ts":      "1234.5678",
		})

	session := newTestSlackSession()
	channel, err := session.OpenDirectMessage(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "D123", channel)

	err = session.PostMessage(context.Background(), channel, "Reviewed by @carol, thanks!")
	assert.NoError(t, err)
	assert.True(t, gock.IsDone(), "すべてのモックが使用されていません")
}

func TestSlackSession_PostMessageError(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/chat.postMessage").
		Reply(200).
		JSON(map[string]interface{}{"ok": false, "error": "channel_not_found"})

	err := newTestSlackSession().PostMessage(context.Background(), "DXXX", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestSlackOAuth_InstallURL(t *testing.T) {
	installer := &SlackOAuth{
		ClientID:    "123.456",
		RedirectURL: "https://relay.example.com/slack/oauth",
		Scopes:      []string{"users:read", "chat:write"},
	}

	installURL := installer.InstallURL("")

	assert.Contains(t, installURL, "https://slack.com/oauth/v2/authorize?")
	assert.Contains(t, installURL, "client_id=123.456")
	assert.Contains(t, installURL, "scope=users%3Aread%2Cchat%3Awrite")
	assert.Contains(t, installURL, "redirect_uri=https%3A%2F%2Frelay.example.com%2Fslack%2Foauth")
	assert.NotContains(t, installURL, "state=")
}

func TestSlackOAuth_Install(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/oauth.v2.access").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":           true,
			"access_token": "xoxb-installed",
			"bot_user_id":  "UBOT",
			"team":         map[string]interface{}{"id": "T1", "name": "acme"},
		})

	installer := &SlackOAuth{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://relay.example.com/slack/oauth"}
	team, err := installer.Install(context.Background(), "install-code")

	require.NoError(t, err)
	assert.Equal(t, "T1", team.SlackTeamID)
	assert.Equal(t, "acme", team.TeamName)
	assert.Equal(t, "xoxb-installed", team.BotToken)
	assert.Equal(t, "UBOT", team.BotUserID)
}

func TestSlackOAuth_InstallError(t *testing.T) {
	defer gock.Off()

	gock.New("https://slack.com").
		Post("/api/oauth.v2.access").
		Reply(200).
		JSON(map[string]interface{}{"ok": false, "error": "invalid_code"})

	installer := &SlackOAuth{ClientID: "id", ClientSecret: "secret"}
	_, err := installer.Install(context.Background(), "bad-code")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_code")
}

func signForTest(header http.Header, body []byte, secret string, at time.Time) {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":"))
	mac.Write(body)
	header.Set("X-Slack-Request-Timestamp", ts)
	header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func TestValidateSlackRequest(t *testing.T) {
	body := []byte(`{"type":"event_callback"}`)

	signed := http.Header{}
	signForTest(signed, body, "signing-secret", time.Now())
	assert.True(t, ValidateSlackRequest(signed, body, "signing-secret"))
	assert.False(t, ValidateSlackRequest(signed, []byte(`{"type":"tampered"}`), "signing-secret"))
	assert.False(t, ValidateSlackRequest(signed, body, "other-secret"))

	stale := http.Header{}
	signForTest(stale, body, "signing-secret", time.Now().Add(-time.Hour))
	assert.False(t, ValidateSlackRequest(stale, body, "signing-secret"))

	assert.False(t, ValidateSlackRequest(http.Header{}, body, "signing-secret"))
	assert.True(t, ValidateSlackRequest(http.Header{}, body, ""))
}
