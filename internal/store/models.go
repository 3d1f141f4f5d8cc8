package store

import (
	"time"

	"github.com/michelutke/volleyball-scoreboard/internal/rules"
)

// Match is one scoreboard match with its display settings and lifecycle
// status. Scheduling metadata (ScheduledAt, Venue, League,
// FederationMatchID) is written by the roster importer, never by scoring.
type Match struct {
	ID                uint   `gorm:"primaryKey"`
	HomeTeamName      string `gorm:"not null;default:'Heim'"`
	GuestTeamName     string `gorm:"not null;default:'Gast'"`
	HomeJerseyColor   string `gorm:"not null;default:'#1e40af'"`
	GuestJerseyColor  string `gorm:"not null;default:'#dc2626'"`
	ShowJerseyColors  bool   `gorm:"not null;default:true"`
	ShowSetScores     bool   `gorm:"not null;default:false"`
	Status            string `gorm:"not null;default:'upcoming'"`
	FederationMatchID *string
	ScheduledAt       *time.Time
	Venue             *string
	League            *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Score is one immutable snapshot of a match's score line. The row with the
// highest id for a match is the live state; undo deletes it. Rows are only
// ever appended and (on undo or match cancel) deleted, never updated.
type Score struct {
	ID          uint             `gorm:"primaryKey"`
	MatchID     uint             `gorm:"not null;index"`
	HomePoints  int              `gorm:"not null;default:0"`
	GuestPoints int              `gorm:"not null;default:0"`
	HomeSets    int              `gorm:"not null;default:0"`
	GuestSets   int              `gorm:"not null;default:0"`
	CurrentSet  int              `gorm:"not null;default:1"`
	SetScores   []rules.SetScore `gorm:"serializer:json;not null"`
	ServiceTeam string           `gorm:"not null;default:'home'"`
	CreatedAt   time.Time
}

// Timeout is one timeout call. The ledger for (match, team, set) is the
// count of its rows; cancelling removes the newest row of the triple.
type Timeout struct {
	ID        uint   `gorm:"primaryKey"`
	MatchID   uint   `gorm:"not null;index:idx_timeouts_ledger"`
	Team      string `gorm:"not null;index:idx_timeouts_ledger"`
	Set       int    `gorm:"not null;index:idx_timeouts_ledger"`
	CreatedAt time.Time
}
