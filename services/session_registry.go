package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"slack-mention-relay/models"
)

// SessionFactory builds the chat session for an installed team.
type SessionFactory func(team models.TeamRecord) ChatSession

// SlackSessionFactory builds SlackSessions.
func SlackSessionFactory(team models.TeamRecord) ChatSession {
	return NewSlackSession(team)
}

// SessionRegistry owns the live bot session of every installed team.
// Sessions are created on startup replay or on install and live for the process.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]registeredSession
	factory  SessionFactory
	log      *zap.SugaredLogger
}

type registeredSession struct {
	botToken string
	session  ChatSession
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry(factory SessionFactory, log *zap.SugaredLogger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]registeredSession),
		factory:  factory,
		log:      log,
	}
}

// Replay registers a session for every team in the directory.
func (r *SessionRegistry) Replay(ctx context.Context, dir Directory) (int, error) {
	teams, err := dir.AllTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("load teams: %w", err)
	}
	for _, team := range teams {
		r.Register(team)
	}
	return len(teams), nil
}

// Register adds the team's session. A team that is already online with the
// same bot token keeps its session; a reinstall with a new token replaces it.
func (r *SessionRegistry) Register(team models.TeamRecord) ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[team.SlackTeamID]; ok && existing.botToken == team.BotToken {
		return existing.session
	}
	session := r.factory(team)
	r.sessions[team.SlackTeamID] = registeredSession{botToken: team.BotToken, session: session}
	r.log.Infow("bot session registered", "team_id", team.SlackTeamID, "bot_user_id", team.BotUserID)
	return session
}

// Ensure returns the team's session, registering one if the team is not online yet.
func (r *SessionRegistry) Ensure(team models.TeamRecord) ChatSession {
	if session, ok := r.Get(team.SlackTeamID); ok {
		return session
	}
	return r.Register(team)
}

// Get returns the session of a registered team.
func (r *SessionRegistry) Get(teamID string) (ChatSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[teamID]
	return s.session, ok
}

// Len returns the number of registered teams.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
