package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"slack-mention-relay/models"
)

// GormDirectory keeps records in a sqlite database through gorm.
type GormDirectory struct {
	DB *gorm.DB
}

// OpenGormDirectory opens (and migrates) the sqlite database at path.
// A "sqlite://" prefix is accepted and stripped.
func OpenGormDirectory(path string) (*GormDirectory, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// sqlite serialises writers anyway, and ":memory:" databases are per connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return NewGormDirectory(db)
}

// NewGormDirectory migrates the record tables on db.
func NewGormDirectory(db *gorm.DB) (*GormDirectory, error) {
	if err := db.AutoMigrate(&models.UserRecord{}, &models.TeamRecord{}); err != nil {
		return nil, fmt.Errorf("migrate directory: %w", err)
	}
	return &GormDirectory{DB: db}, nil
}

func (d *GormDirectory) GetUser(ctx context.Context, slackUserID string) (*models.UserRecord, error) {
	var user models.UserRecord
	err := d.DB.WithContext(ctx).Where("slack_user_id = ?", slackUserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *GormDirectory) SaveUser(ctx context.Context, user *models.UserRecord) error {
	touch(&user.CreatedAt, &user.UpdatedAt)
	return d.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(user).Error
}

func (d *GormDirectory) GetTeam(ctx context.Context, slackTeamID string) (*models.TeamRecord, error) {
	var team models.TeamRecord
	err := d.DB.WithContext(ctx).Where("slack_team_id = ?", slackTeamID).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (d *GormDirectory) SaveTeam(ctx context.Context, team *models.TeamRecord) error {
	touch(&team.CreatedAt, &team.UpdatedAt)
	return d.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(team).Error
}

func (d *GormDirectory) AllTeams(ctx context.Context) ([]models.TeamRecord, error) {
	var teams []models.TeamRecord
	if err := d.DB.WithContext(ctx).Order("slack_team_id").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (d *GormDirectory) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func touch(createdAt, updatedAt *time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
