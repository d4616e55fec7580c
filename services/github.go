package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// ErrRepoNotFound is returned when a hook cannot be created because the
// repository does not exist or the token may not administer its hooks.
var ErrRepoNotFound = errors.New("repository not found")

// GitHubScopes are requested when a Slack user links their account.
var GitHubScopes = []string{"notifications", "admin:repo_hook"}

// CodeHost covers the GitHub calls made on behalf of linked users.
type CodeHost interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	Login(ctx context.Context, accessToken string) (string, error)
	CreatePullRequestHook(ctx context.Context, accessToken, owner, repo string, hook HookConfig) error
}

// HookConfig describes the webhook registered on a repository.
type HookConfig struct {
	URL    string
	Secret string
}

// GitHubClient implements CodeHost against github.com or a GitHub Enterprise server.
type GitHubClient struct {
	OAuth         *oauth2.Config
	EnterpriseURL string
}

var _ CodeHost = (*GitHubClient)(nil)

// NewGitHubClient configures the OAuth app. enterpriseURL is empty for github.com.
func NewGitHubClient(clientID, clientSecret, redirectURL, enterpriseURL string) *GitHubClient {
	endpoint := githuboauth.Endpoint
	if enterpriseURL != "" {
		base := strings.TrimRight(enterpriseURL, "/")
		endpoint = oauth2.Endpoint{
			AuthURL:  base + "/login/oauth/authorize",
			TokenURL: base + "/login/oauth/access_token",
		}
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &GitHubClient{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     endpoint,
			RedirectURL:  redirectURL,
			Scopes:       GitHubScopes,
		},
		EnterpriseURL: enterpriseURL,
	}
}

func (g *GitHubClient) AuthCodeURL(state string) string {
	return g.OAuth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (g *GitHubClient) Exchange(ctx context.Context, code string) (string, error) {
	token, err := g.OAuth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	return token.AccessToken, nil
}

// Login returns the login of the token's owner.
func (g *GitHubClient) Login(ctx context.Context, accessToken string) (string, error) {
	client, err := g.client(ctx, accessToken)
	if err != nil {
		return "", err
	}
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("get authenticated user: %w", err)
	}
	if user.GetLogin() == "" {
		return "", errors.New("get authenticated user: empty login")
	}
	return user.GetLogin(), nil
}

// CreatePullRequestHook registers a JSON "web" hook for pull_request events.
func (g *GitHubClient) CreatePullRequestHook(ctx context.Context, accessToken, owner, repo string, hook HookConfig) error {
	client, err := g.client(ctx, accessToken)
	if err != nil {
		return err
	}

	config := &github.HookConfig{
		URL:         github.Ptr(hook.URL),
		ContentType: github.Ptr("json"),
	}
	if hook.Secret != "" {
		config.Secret = github.Ptr(hook.Secret)
	}

	created, resp, err := client.Repositories.CreateHook(ctx, owner, repo, &github.Hook{
		Name:   github.Ptr("web"),
		Active: github.Ptr(true),
		Events: []string{"pull_request"},
		Config: config,
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden) {
			return fmt.Errorf("%s/%s: %w", owner, repo, ErrRepoNotFound)
		}
		return fmt.Errorf("create hook on %s/%s: %w", owner, repo, err)
	}
	if created == nil {
		return fmt.Errorf("%s/%s: %w", owner, repo, ErrRepoNotFound)
	}
	return nil
}

// client builds an API client authenticated as the linked user.
func (g *GitHubClient) client(ctx context.Context, accessToken string) (*github.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if g.EnterpriseURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(g.EnterpriseURL, g.EnterpriseURL)
	if err != nil {
		return nil, fmt.Errorf("github enterprise url: %w", err)
	}
	return client, nil
}
