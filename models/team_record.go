package models

import (
	"time"
)

// TeamRecord is written once when the bot is installed into a Slack team.
type TeamRecord struct {
	SlackTeamID string    `gorm:"primaryKey" json:"id"`
	TeamName    string    `json:"name,omitempty"`
	BotToken    string    `json:"bot_token"`
	BotUserID   string    `json:"bot_user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
