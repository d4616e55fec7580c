package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"slack-mention-relay/models"
)

// Member is a Slack team member as returned by the chat session.
type Member struct {
	ID   string
	Name string
}

// ResolveMembers looks up the directory record of every member, at most limit
// lookups at a time (limit <= 0 means unbounded). Members that never linked
// GitHub are dropped, as are members whose lookup failed. The result keeps
// member order whatever order the lookups finish in.
func ResolveMembers(ctx context.Context, dir Directory, members []Member, limit int, log *zap.SugaredLogger) []models.UserRecord {
	records := []models.UserRecord{}
	if len(members) == 0 {
		return records
	}

	found := make([]*models.UserRecord, len(members))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, member := range members {
		g.Go(func() error {
			user, err := dir.GetUser(ctx, member.ID)
			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				log.Warnw("directory lookup failed", "slack_user_id", member.ID, "error", err)
			default:
				found[i] = user
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, user := range found {
		if user != nil {
			records = append(records, *user)
		}
	}
	return records
}
