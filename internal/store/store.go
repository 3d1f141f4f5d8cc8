// Package store is the durable record of matches, score snapshots and
// timeouts. It only does CRUD-with-ordering; all scoring logic lives in
// rules and all coordination in scoreboard.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/michelutke/volleyball-scoreboard/internal/rules"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrScoreNotFound     = errors.New("score not found")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNoTimeoutToCancel = errors.New("no timeout to cancel")
	ErrMatchNotEditable  = errors.New("match is live or finished")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the matches, scores and timeouts tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Match{}, &Score{}, &Timeout{})
}

// Transact runs fn against a Store bound to a single transaction. Any error
// from fn rolls the whole transaction back.
func (s *Store) Transact(ctx context.Context, fn func(*Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) CreateMatch(ctx context.Context, m *Match) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *Store) GetMatch(ctx context.Context, id uint) (Match, error) {
	var m Match
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Match{}, ErrMatchNotFound
	}
	return m, err
}

// ListMatches returns all matches, newest first.
func (s *Store) ListMatches(ctx context.Context) ([]Match, error) {
	var ms []Match
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&ms).Error
	return ms, err
}

func (s *Store) UpdateMatchStatus(ctx context.Context, id uint, status rules.Status) error {
	res := s.db.WithContext(ctx).Model(&Match{}).Where("id = ?", id).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// UpdateMatchSettings applies a partial settings update. Updates is a
// column->value map built by the caller from the set fields of the patch.
func (s *Store) UpdateMatchSettings(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&Match{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

// Schedule is the metadata the roster importer maintains on a match.
type Schedule struct {
	ScheduledAt       *time.Time
	Venue             *string
	League            *string
	FederationMatchID *string
}

// UpdateSchedule writes importer-owned scheduling metadata. A match that is
// live or finished belongs to the scorekeeper and is refused with
// ErrMatchNotEditable.
func (s *Store) UpdateSchedule(ctx context.Context, id uint, sched Schedule) error {
	updates := map[string]any{}
	if sched.ScheduledAt != nil {
		updates["scheduled_at"] = *sched.ScheduledAt
	}
	if sched.Venue != nil {
		updates["venue"] = *sched.Venue
	}
	if sched.League != nil {
		updates["league"] = *sched.League
	}
	if sched.FederationMatchID != nil {
		updates["federation_match_id"] = *sched.FederationMatchID
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.db.WithContext(ctx).Model(&Match{}).
		Where("id = ? AND status = ?", id, string(rules.StatusUpcoming)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetMatch(ctx, id); err != nil {
			return err
		}
		return ErrMatchNotEditable
	}
	return nil
}

// DeleteMatch removes a match together with all its snapshots and timeout
// records.
func (s *Store) DeleteMatch(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Match{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotFound
		}
		if err := tx.Where("match_id = ?", id).Delete(&Score{}).Error; err != nil {
			return err
		}
		return tx.Where("match_id = ?", id).Delete(&Timeout{}).Error
	})
}

func (s *Store) AppendScore(ctx context.Context, sc *Score) error {
	return s.db.WithContext(ctx).Create(sc).Error
}

// LatestScore returns the newest snapshot of a match. Ordering is by row id:
// appends for one match are serialized by the caller, so id order is
// creation order even when timestamps collide.
func (s *Store) LatestScore(ctx context.Context, matchID uint) (Score, error) {
	var sc Score
	err := s.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id DESC").First(&sc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Score{}, ErrScoreNotFound
	}
	return sc, err
}

// ListScores returns all snapshots of a match, oldest first.
func (s *Store) ListScores(ctx context.Context, matchID uint) ([]Score, error) {
	var scs []Score
	err := s.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id ASC").Find(&scs).Error
	return scs, err
}

func (s *Store) CountScores(ctx context.Context, matchID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Score{}).Where("match_id = ?", matchID).Count(&n).Error
	return n, err
}

// UndoLastScore deletes the newest snapshot and returns the one before it.
// A match always keeps its first snapshot: with fewer than two rows the
// call fails with ErrNothingToUndo.
func (s *Store) UndoLastScore(ctx context.Context, matchID uint) (Score, error) {
	var last []Score
	err := s.db.WithContext(ctx).Where("match_id = ?", matchID).Order("id DESC").Limit(2).Find(&last).Error
	if err != nil {
		return Score{}, err
	}
	if len(last) < 2 {
		return Score{}, ErrNothingToUndo
	}
	if err := s.db.WithContext(ctx).Delete(&Score{}, last[0].ID).Error; err != nil {
		return Score{}, fmt.Errorf("delete score %d: %w", last[0].ID, err)
	}
	return last[1], nil
}

// DeleteScores removes every snapshot of a match (match cancel).
func (s *Store) DeleteScores(ctx context.Context, matchID uint) error {
	return s.db.WithContext(ctx).Where("match_id = ?", matchID).Delete(&Score{}).Error
}

func (s *Store) InsertTimeout(ctx context.Context, t *Timeout) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) CountTimeouts(ctx context.Context, matchID uint, team rules.Team, set int) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Timeout{}).
		Where("match_id = ? AND team = ? AND \"set\" = ?", matchID, string(team), set).
		Count(&n).Error
	return n, err
}

// DeleteLastTimeout removes the newest timeout row of the triple.
func (s *Store) DeleteLastTimeout(ctx context.Context, matchID uint, team rules.Team, set int) error {
	var t Timeout
	err := s.db.WithContext(ctx).
		Where("match_id = ? AND team = ? AND \"set\" = ?", matchID, string(team), set).
		Order("id DESC").First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoTimeoutToCancel
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Timeout{}, t.ID).Error
}

// DeleteTimeouts removes every timeout row of a match (match cancel).
func (s *Store) DeleteTimeouts(ctx context.Context, matchID uint) error {
	return s.db.WithContext(ctx).Where("match_id = ?", matchID).Delete(&Timeout{}).Error
}
