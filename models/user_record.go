package models

import (
	"time"
)

// UserRecord links a Slack user to a GitHub identity.
// A record with a token but no username is still waiting for username resolution.
type UserRecord struct {
	SlackUserID       string    `gorm:"primaryKey" json:"id"`
	SlackTeamID       string    `gorm:"index" json:"team_id,omitempty"`
	GithubAccessToken string    `json:"github_access_token,omitempty"`
	GithubUsername    string    `gorm:"index" json:"github_username,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsLinked reports whether the user finished the GitHub OAuth flow and the
// username lookup that follows it.
func (u UserRecord) IsLinked() bool {
	return u.GithubAccessToken != "" && u.GithubUsername != ""
}
