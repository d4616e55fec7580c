package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"slack-mention-relay/models"
)

const stateSeparator = "#"

// EncodeState packs the Slack user and team into the OAuth state parameter.
func EncodeState(slackUserID, slackTeamID string) string {
	return slackUserID + stateSeparator + slackTeamID
}

// DecodeState splits an OAuth state back into user and team id.
// The team part is optional for links generated before teams were tracked.
func DecodeState(state string) (slackUserID, slackTeamID string, err error) {
	slackUserID, slackTeamID, _ = strings.Cut(state, stateSeparator)
	if slackUserID == "" {
		return "", "", fmt.Errorf("invalid oauth state %q", state)
	}
	return slackUserID, slackTeamID, nil
}

// Linker connects Slack users to their GitHub accounts.
type Linker struct {
	dir      Directory
	codeHost CodeHost
	log      *zap.SugaredLogger
	pending  sync.WaitGroup
}

// NewLinker returns a Linker storing links in dir.
func NewLinker(dir Directory, codeHost CodeHost, log *zap.SugaredLogger) *Linker {
	return &Linker{dir: dir, codeHost: codeHost, log: log}
}

// AuthURL is where the user's browser goes to authorise the relay on GitHub.
func (l *Linker) AuthURL(slackUserID, slackTeamID string) string {
	return l.codeHost.AuthCodeURL(EncodeState(slackUserID, slackTeamID))
}

// CompleteLink exchanges the callback code, stores the token on the user's
// record and resolves the GitHub username in the background.
func (l *Linker) CompleteLink(ctx context.Context, code, state string) (*models.UserRecord, error) {
	slackUserID, slackTeamID, err := DecodeState(state)
	if err != nil {
		return nil, err
	}

	token, err := l.codeHost.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("exchange code: empty access token")
	}

	user, err := UpdateUser(ctx, l.dir, slackUserID, func(u *models.UserRecord) {
		u.GithubAccessToken = token
		if slackTeamID != "" {
			u.SlackTeamID = slackTeamID
		}
	})
	if err != nil {
		return nil, err
	}

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		resolveCtx := context.WithoutCancel(ctx)
		if _, err := l.ResolveUsername(resolveCtx, slackUserID); err != nil {
			l.log.Errorw("failed to resolve github username", "slack_user_id", slackUserID, "error", err)
		}
	}()

	return user, nil
}

// ResolveUsername asks GitHub who owns the stored token and saves the login.
func (l *Linker) ResolveUsername(ctx context.Context, slackUserID string) (string, error) {
	user, err := l.dir.GetUser(ctx, slackUserID)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", slackUserID, err)
	}
	if user.GithubAccessToken == "" {
		return "", fmt.Errorf("user %s has no github token", slackUserID)
	}

	login, err := l.codeHost.Login(ctx, user.GithubAccessToken)
	if err != nil {
		return "", err
	}
	if login == "" {
		return "", fmt.Errorf("github returned no login for user %s", slackUserID)
	}

	if _, err := UpdateUser(ctx, l.dir, slackUserID, func(u *models.UserRecord) {
		u.GithubUsername = login
	}); err != nil {
		return "", err
	}

	l.log.Infow("github account linked", "slack_user_id", slackUserID, "github_username", login)
	return login, nil
}

// Wait blocks until background username lookups have finished.
func (l *Linker) Wait() {
	l.pending.Wait()
}
