package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"slack-mention-relay/models"
	"slack-mention-relay/services"
	"slack-mention-relay/services/servicestest"
)

const testBaseURL = "https://relay.example.com"

type testEnv struct {
	Dir       *services.GormDirectory
	Session   *servicestest.ChatSession
	CodeHost  *servicestest.CodeHost
	Installer *fakeInstaller
	Sessions  *services.SessionRegistry
	Relay     *services.Relay
	Linker    *services.Linker
	Handlers  Handlers
	Router    *gin.Engine
}

type envOptions struct {
	webhookSecret string
	signingSecret string
}

func newTestLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := newTestLogger()

	dir := servicestest.OpenDirectory(t)
	ctx := context.Background()
	require.NoError(t, dir.SaveTeam(ctx, &models.TeamRecord{SlackTeamID: "T1", TeamName: "acme", BotToken: "xoxb-1", BotUserID: "UBOT"}))
	require.NoError(t, dir.SaveUser(ctx, &models.UserRecord{SlackUserID: "U1", SlackTeamID: "T1", GithubAccessToken: "gho_alice", GithubUsername: "alice"}))
	require.NoError(t, dir.SaveUser(ctx, &models.UserRecord{SlackUserID: "U3", SlackTeamID: "T1", GithubAccessToken: "gho_carol", GithubUsername: "carol"}))

	session := servicestest.NewChatSession(
		services.Member{ID: "U1", Name: "alice"},
		services.Member{ID: "U2", Name: "bob"},
		services.Member{ID: "U3", Name: "carol"},
	)
	sessions := services.NewSessionRegistry(func(models.TeamRecord) services.ChatSession { return session }, log)

	codeHost := &servicestest.CodeHost{
		Tokens: map[string]string{"good-code": "gho_new"},
		Logins: map[string]string{"gho_new": "dave"},
	}
	installer := &fakeInstaller{}

	relay := &services.Relay{
		Dir:               dir,
		Sessions:          sessions,
		Dispatcher:        services.NewDispatcher(0, 1, false, log),
		LookupConcurrency: 4,
		Log:               log,
	}
	linker := services.NewLinker(dir, codeHost, log)
	publicURL := func(path string) string { return testBaseURL + path }
	commands := services.NewCommandRouter(dir, codeHost, publicURL, opts.webhookSecret, log)

	h := Handlers{
		Webhook:      NewWebhookHandler(relay, opts.webhookSecret, log),
		GitHubAuth:   NewGitHubAuthHandler(linker, log),
		SlackEvents:  NewSlackEventsHandler(commands, dir, sessions, opts.signingSecret, log),
		SlashCommand: NewSlashCommandHandler(commands, opts.signingSecret, log),
		SlackInstall: NewSlackInstallHandler(installer, dir, sessions, log),
	}

	return &testEnv{
		Dir:       dir,
		Session:   session,
		CodeHost:  codeHost,
		Installer: installer,
		Sessions:  sessions,
		Relay:     relay,
		Linker:    linker,
		Handlers:  h,
		Router:    NewRouter(h, log),
	}
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// fakeInstaller stands in for Slack's oauth.v2.access.
type fakeInstaller struct {
	Team *models.TeamRecord
	Err  error
}

func (f *fakeInstaller) InstallURL(state string) string {
	return "https://slack.com/oauth/v2/authorize?client_id=test&state=" + state
}

func (f *fakeInstaller) Install(ctx context.Context, code string) (*models.TeamRecord, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Team, nil
}

// signSlackRequest sets the headers Slack sends with a signed request.
func signSlackRequest(t *testing.T, req *http.Request, secret string) {
	t.Helper()
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	req.Body = io.NopCloser(bytes.NewReader(body))

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + string(body)))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}
