package services

import (
	"context"
	"errors"
	"fmt"

	"slack-mention-relay/models"
)

// ErrNotFound is returned by a Directory when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// Directory stores user and team records keyed by Slack id.
// Saves replace the whole record; the last write wins.
type Directory interface {
	GetUser(ctx context.Context, slackUserID string) (*models.UserRecord, error)
	SaveUser(ctx context.Context, user *models.UserRecord) error
	GetTeam(ctx context.Context, slackTeamID string) (*models.TeamRecord, error)
	SaveTeam(ctx context.Context, team *models.TeamRecord) error
	AllTeams(ctx context.Context) ([]models.TeamRecord, error)
	Close() error
}

// UpdateUser reads the user record, applies mutate and writes the whole record back.
// A missing record starts out empty, so fields set by earlier updates are kept.
func UpdateUser(ctx context.Context, dir Directory, slackUserID string, mutate func(*models.UserRecord)) (*models.UserRecord, error) {
	user, err := dir.GetUser(ctx, slackUserID)
	if errors.Is(err, ErrNotFound) {
		user = &models.UserRecord{SlackUserID: slackUserID}
	} else if err != nil {
		return nil, fmt.Errorf("get user %s: %w", slackUserID, err)
	}

	mutate(user)
	user.SlackUserID = slackUserID

	if err := dir.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %w", slackUserID, err)
	}
	return user, nil
}
