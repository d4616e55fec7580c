package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrMissingTeam is returned by Notify when a body with mentions arrives without a team.
var ErrMissingTeam = errors.New("missing slack team id")

// Relay forwards pull request descriptions to the Slack users they mention.
type Relay struct {
	Dir               Directory
	Sessions          *SessionRegistry
	Dispatcher        *Dispatcher
	LookupConcurrency int
	// Actions limits which pull_request actions are relayed. Empty relays all.
	Actions []string
	Log     *zap.SugaredLogger
}

// AllowsAction reports whether a pull_request event with this action is relayed.
func (r *Relay) AllowsAction(action string) bool {
	if len(r.Actions) == 0 {
		return true
	}
	for _, a := range r.Actions {
		if strings.EqualFold(strings.TrimSpace(a), action) {
			return true
		}
	}
	return false
}

// NotifyResult describes what one webhook delivery did.
type NotifyResult struct {
	Mentions   []string
	Candidates int
	// Delivery is nil when the body mentioned nobody.
	Delivery *Delivery
}

// Notified reports whether the fan-out ran.
func (r *NotifyResult) Notified() bool {
	return r.Delivery != nil
}

// Notify runs the mention pipeline for one pull request body in one team:
// extract mentions, list the team's members, join them with the directory,
// match usernames and send the body to every match.
//
// A body without mentions returns straight away without touching the directory,
// whether or not teamID is set.
func (r *Relay) Notify(ctx context.Context, teamID, body string) (*NotifyResult, error) {
	mentions := ExtractMentions(body)
	result := &NotifyResult{Mentions: mentions}
	if len(mentions) == 0 {
		return result, nil
	}
	if teamID == "" {
		return nil, ErrMissingTeam
	}

	team, err := r.Dir.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("get team %s: %w", teamID, err)
	}
	session := r.Sessions.Ensure(*team)

	members, err := session.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", teamID, err)
	}

	candidates := ResolveMembers(ctx, r.Dir, members, r.LookupConcurrency, r.Log)
	result.Candidates = len(candidates)

	targets := MatchMentions(NormalizeMentions(mentions), candidates)
	result.Delivery = r.Dispatcher.Dispatch(ctx, session, targets, body)

	r.Log.Infow("pull request mentions relayed",
		"team_id", teamID,
		"mentions", len(mentions),
		"members", len(members),
		"candidates", len(candidates),
		"targets", result.Delivery.Total,
	)
	return result, nil
}
