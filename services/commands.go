package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"

	"slack-mention-relay/models"
)

const (
	loginCommand = "login to github"
	repoCommand  = "repo:"
	// typos within this distance of loginCommand get a hint
	loginSuggestDistance = 3
)

// Command is a message addressed to the bot.
type Command struct {
	TeamID string
	UserID string
	Text   string
}

// CommandRouter answers the bot's chat commands.
type CommandRouter struct {
	dir           Directory
	codeHost      CodeHost
	publicURL     func(path string) string
	webhookSecret string
	log           *zap.SugaredLogger
}

// NewCommandRouter returns a router that builds links with publicURL.
func NewCommandRouter(dir Directory, codeHost CodeHost, publicURL func(path string) string, webhookSecret string, log *zap.SugaredLogger) *CommandRouter {
	return &CommandRouter{
		dir:           dir,
		codeHost:      codeHost,
		publicURL:     publicURL,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// Handle returns the reply to cmd, and false when the text is not a command.
func (r *CommandRouter) Handle(ctx context.Context, cmd Command) (string, bool) {
	text := strings.TrimSpace(cmd.Text)

	switch {
	case strings.EqualFold(text, loginCommand):
		return r.loginLink(cmd), true
	case strings.Contains(strings.ToLower(text), repoCommand):
		return r.registerRepo(ctx, cmd, repoArgument(text)), true
	case text != "" && fuzzy.LevenshteinDistance(strings.ToLower(text), loginCommand) <= loginSuggestDistance:
		return fmt.Sprintf("Did you mean `%s`?", loginCommand), true
	}
	return "", false
}

func (r *CommandRouter) loginLink(cmd Command) string {
	q := url.Values{}
	q.Set("user_id", cmd.UserID)
	q.Set("team_id", cmd.TeamID)
	link := r.publicURL("/github-auth?" + q.Encode())
	return fmt.Sprintf("<%s|connect to your github account>", link)
}

func (r *CommandRouter) registerRepo(ctx context.Context, cmd Command, repoName string) string {
	if repoName == "" {
		return "Tell me which repo to watch, e.g. `repo:my-project`"
	}

	user, err := r.dir.GetUser(ctx, cmd.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		r.log.Errorw("directory lookup failed", "slack_user_id", cmd.UserID, "error", err)
	}
	if user == nil || !user.IsLinked() {
		return fmt.Sprintf("Link your GitHub account first: say `%s`", loginCommand)
	}

	owner, repo := splitRepo(user, repoName)
	teamID := cmd.TeamID
	if teamID == "" {
		teamID = user.SlackTeamID
	}
	hook := HookConfig{
		URL:    r.publicURL("/webhooks/pull-request?slack_team_id=" + url.QueryEscape(teamID)),
		Secret: r.webhookSecret,
	}

	if err := r.codeHost.CreatePullRequestHook(ctx, user.GithubAccessToken, owner, repo, hook); err != nil {
		r.log.Warnw("webhook registration failed", "repo", owner+"/"+repo, "slack_user_id", cmd.UserID, "error", err)
		return "Could not find any repo by name: " + repoName
	}

	r.log.Infow("webhook registered", "repo", owner+"/"+repo, "team_id", teamID)
	return "Slackbot notifications set up for repo: " + repoName
}

// repoArgument returns what follows the last ':' with Slack link markup removed.
func repoArgument(text string) string {
	arg := text[strings.LastIndex(text, ":")+1:]
	arg = strings.TrimSpace(arg)
	arg = strings.Trim(arg, "<>`")
	if i := strings.Index(arg, "|"); i >= 0 {
		arg = arg[i+1:]
	}
	return strings.TrimSpace(arg)
}

// splitRepo resolves "name" to the user's own repo and keeps "owner/name" as given.
func splitRepo(user *models.UserRecord, repoName string) (string, string) {
	if owner, repo, ok := strings.Cut(repoName, "/"); ok && owner != "" && repo != "" {
		return owner, repo
	}
	return user.GithubUsername, repoName
}
