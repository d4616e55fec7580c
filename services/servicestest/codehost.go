package servicestest

import (
	"context"
	"sync"

	"slack-mention-relay/services"
)

// CodeHost implements services.CodeHost in memory.
type CodeHost struct {
	mu sync.Mutex

	// Tokens maps authorization codes to access tokens; unknown codes fail with ExchangeErr.
	Tokens      map[string]string
	ExchangeErr error
	// Logins maps access tokens to GitHub logins.
	Logins   map[string]string
	LoginErr error
	// MissingRepos lists "owner/repo" names CreatePullRequestHook rejects.
	MissingRepos map[string]bool

	Hooks []Hook
}

// Hook records a CreatePullRequestHook call.
type Hook struct {
	AccessToken string
	FullName    string
	Config      services.HookConfig
}

func (m *CodeHost) AuthCodeURL(state string) string {
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (m *CodeHost) Exchange(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.Tokens[code]
	if !ok {
		return "", m.ExchangeErr
	}
	return token, nil
}

func (m *CodeHost) Login(ctx context.Context, accessToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoginErr != nil {
		return "", m.LoginErr
	}
	return m.Logins[accessToken], nil
}

func (m *CodeHost) CreatePullRequestHook(ctx context.Context, accessToken, owner, repo string, hook services.HookConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fullName := owner + "/" + repo
	if m.MissingRepos[fullName] {
		return services.ErrRepoNotFound
	}
	m.Hooks = append(m.Hooks, Hook{AccessToken: accessToken, FullName: fullName, Config: hook})
	return nil
}

// HookCalls returns a copy of the recorded hook registrations.
func (m *CodeHost) HookCalls() []Hook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Hook(nil), m.Hooks...)
}

var _ services.CodeHost = (*CodeHost)(nil)
