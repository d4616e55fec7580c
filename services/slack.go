package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/slack-go/slack"

	"slack-mention-relay/models"
)

// ChatSession is the part of a team's bot connection the relay uses.
type ChatSession interface {
	ListMembers(ctx context.Context) ([]Member, error)
	OpenDirectMessage(ctx context.Context, slackUserID string) (string, error)
	PostMessage(ctx context.Context, channelID, text string) error
}

// SlackSession talks to the Slack Web API with a team's bot token.
type SlackSession struct {
	Client    *slack.Client
	TeamID    string
	BotUserID string
}

var _ ChatSession = (*SlackSession)(nil)

// NewSlackSession builds a session for an installed team.
func NewSlackSession(team models.TeamRecord, options ...slack.Option) *SlackSession {
	return &SlackSession{
		Client:    slack.New(team.BotToken, options...),
		TeamID:    team.SlackTeamID,
		BotUserID: team.BotUserID,
	}
}

// ListMembers returns the active human members of the team.
func (s *SlackSession) ListMembers(ctx context.Context) ([]Member, error) {
	users, err := s.Client.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("users.list: %w", err)
	}

	members := make([]Member, 0, len(users))
	for _, u := range users {
		if u.Deleted || u.IsBot || u.ID == "USLACKBOT" {
			continue
		}
		members = append(members, Member{ID: u.ID, Name: u.Name})
	}
	return members, nil
}

// OpenDirectMessage opens, or reuses, the IM channel with a user.
func (s *SlackSession) OpenDirectMessage(ctx context.Context, slackUserID string) (string, error) {
	channel, _, _, err := s.Client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{slackUserID},
		ReturnIM: true,
	})
	if err != nil {
		return "", fmt.Errorf("conversations.open %s: %w", slackUserID, err)
	}
	return channel.ID, nil
}

// PostMessage sends text as-is; Slack formatting in it is left to Slack.
func (s *SlackSession) PostMessage(ctx context.Context, channelID, text string) error {
	_, _, err := s.Client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("chat.postMessage %s: %w", channelID, err)
	}
	return nil
}

// SlackInstaller runs the "Add to Slack" OAuth flow for the bot.
type SlackInstaller interface {
	InstallURL(state string) string
	Install(ctx context.Context, code string) (*models.TeamRecord, error)
}

// SlackOAuth exchanges install codes with oauth.v2.access.
type SlackOAuth struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client
}

func (o *SlackOAuth) InstallURL(state string) string {
	q := url.Values{}
	q.Set("client_id", o.ClientID)
	q.Set("scope", strings.Join(o.Scopes, ","))
	q.Set("redirect_uri", o.RedirectURL)
	if state != "" {
		q.Set("state", state)
	}
	return "https://slack.com/oauth/v2/authorize?" + q.Encode()
}

func (o *SlackOAuth) Install(ctx context.Context, code string) (*models.TeamRecord, error) {
	client := o.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := slack.GetOAuthV2ResponseContext(ctx, client, o.ClientID, o.ClientSecret, code, o.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("oauth.v2.access: %w", err)
	}
	if resp.Team.ID == "" || resp.AccessToken == "" {
		return nil, errors.New("oauth.v2.access: response has no team or bot token")
	}

	return &models.TeamRecord{
		SlackTeamID: resp.Team.ID,
		TeamName:    resp.Team.Name,
		BotToken:    resp.AccessToken,
		BotUserID:   resp.BotUserID,
	}, nil
}

// ValidateSlackRequest checks the X-Slack-Signature header against the signing secret.
// Verification is skipped when no secret is configured.
func ValidateSlackRequest(header http.Header, body []byte, signingSecret string) bool {
	if signingSecret == "" {
		return true
	}

	verifier, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return false
	}
	if _, err := verifier.Write(body); err != nil {
		return false
	}
	return verifier.Ensure() == nil
}
