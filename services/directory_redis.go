package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"slack-mention-relay/models"
)

// RedisDirectory stores records as JSON values in two hashes,
// <prefix>:users and <prefix>:teams, keyed by Slack id.
type RedisDirectory struct {
	Client *redis.Client
	Prefix string
}

// OpenRedisDirectory connects to the Redis server named by url and pings it.
func OpenRedisDirectory(ctx context.Context, url, prefix string) (*RedisDirectory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisDirectory(client, prefix), nil
}

// NewRedisDirectory wraps an existing client.
func NewRedisDirectory(client *redis.Client, prefix string) *RedisDirectory {
	if prefix == "" {
		prefix = "relay"
	}
	return &RedisDirectory{Client: client, Prefix: prefix}
}

func (d *RedisDirectory) usersKey() string { return d.Prefix + ":users" }
func (d *RedisDirectory) teamsKey() string { return d.Prefix + ":teams" }

func (d *RedisDirectory) GetUser(ctx context.Context, slackUserID string) (*models.UserRecord, error) {
	var user models.UserRecord
	if err := d.get(ctx, d.usersKey(), slackUserID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *RedisDirectory) SaveUser(ctx context.Context, user *models.UserRecord) error {
	touch(&user.CreatedAt, &user.UpdatedAt)
	return d.put(ctx, d.usersKey(), user.SlackUserID, user)
}

func (d *RedisDirectory) GetTeam(ctx context.Context, slackTeamID string) (*models.TeamRecord, error) {
	var team models.TeamRecord
	if err := d.get(ctx, d.teamsKey(), slackTeamID, &team); err != nil {
		return nil, err
	}
	return &team, nil
}

func (d *RedisDirectory) SaveTeam(ctx context.Context, team *models.TeamRecord) error {
	touch(&team.CreatedAt, &team.UpdatedAt)
	return d.put(ctx, d.teamsKey(), team.SlackTeamID, team)
}

func (d *RedisDirectory) AllTeams(ctx context.Context) ([]models.TeamRecord, error) {
	values, err := d.Client.HGetAll(ctx, d.teamsKey()).Result()
	if err != nil {
		return nil, err
	}

	teams := make([]models.TeamRecord, 0, len(values))
	for id, raw := range values {
		var team models.TeamRecord
		if err := json.Unmarshal([]byte(raw), &team); err != nil {
			return nil, fmt.Errorf("decode team %s: %w", id, err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

func (d *RedisDirectory) Close() error {
	return d.Client.Close()
}

func (d *RedisDirectory) get(ctx context.Context, key, field string, out any) error {
	raw, err := d.Client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", key, field, err)
	}
	return nil
}

func (d *RedisDirectory) put(ctx context.Context, key, field string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return d.Client.HSet(ctx, key, field, raw).Err()
}
