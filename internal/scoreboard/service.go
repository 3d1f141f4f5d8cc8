// Package scoreboard coordinates scoring actions: it reads the latest
// snapshot, runs the rules engine, appends the new snapshot and publishes
// the resulting event. All read-latest-then-append paths for one match are
// serialized by a per-match lock; different matches never contend.
package scoreboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/michelutke/volleyball-scoreboard/internal/hub"
	"github.com/michelutke/volleyball-scoreboard/internal/rules"
	"github.com/michelutke/volleyball-scoreboard/internal/store"
	"github.com/michelutke/volleyball-scoreboard/internal/types"
)

// Action tags accepted by Dispatch.
const (
	ActionAddPoint      = "addPoint"
	ActionRemovePoint   = "removePoint"
	ActionReset         = "reset"
	ActionSwitchService = "switchService"
	ActionAddSet        = "addSet"
	ActionRemoveSet     = "removeSet"
	ActionUndo          = "undo"
)

const maxTimeoutsPerSet = 2

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidTeam   = errors.New("invalid team")
	ErrTimeoutLimit  = errors.New("max timeouts reached for this set")
	ErrMatchNotLive  = errors.New("match is not live")
)

type Service struct {
	store *store.Store
	hub   *hub.Hub
	log   *zap.Logger

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func New(st *store.Store, h *hub.Hub, log *zap.Logger) *Service {
	return &Service{
		store: st,
		hub:   h,
		log:   log,
		locks: make(map[uint]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing all mutations of one match.
func (s *Service) lockFor(matchID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[matchID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[matchID] = l
	}
	return l
}

// CreateParams are the optional display settings for a new match. Nil
// fields fall back to the defaults.
type CreateParams struct {
	HomeTeamName     *string
	GuestTeamName    *string
	HomeJerseyColor  *string
	GuestJerseyColor *string
	ShowJerseyColors *bool
	Activate         bool
}

// Create inserts a new match, upcoming by default. With Activate it starts
// out live with its initial snapshot and announces itself to global
// subscribers.
func (s *Service) Create(ctx context.Context, p CreateParams) (rules.MatchState, error) {
	m := store.Match{
		HomeTeamName:     "Heim",
		GuestTeamName:    "Gast",
		HomeJerseyColor:  "#1e40af",
		GuestJerseyColor: "#dc2626",
		ShowJerseyColors: true,
		Status:           string(rules.StatusUpcoming),
	}
	if p.HomeTeamName != nil {
		m.HomeTeamName = *p.HomeTeamName
	}
	if p.GuestTeamName != nil {
		m.GuestTeamName = *p.GuestTeamName
	}
	if p.HomeJerseyColor != nil {
		m.HomeJerseyColor = *p.HomeJerseyColor
	}
	if p.GuestJerseyColor != nil {
		m.GuestJerseyColor = *p.GuestJerseyColor
	}
	if p.ShowJerseyColors != nil {
		m.ShowJerseyColors = *p.ShowJerseyColors
	}
	if p.Activate {
		m.Status = string(rules.StatusLive)
	}

	if err := s.store.CreateMatch(ctx, &m); err != nil {
		return rules.MatchState{}, err
	}

	sc := initialScore(m.ID)
	if p.Activate {
		if err := s.store.AppendScore(ctx, &sc); err != nil {
			return rules.MatchState{}, err
		}
	}

	state := stateFrom(m, sc)
	if p.Activate {
		s.hub.Publish(m.ID, types.SSEEvent{Type: types.EventMatch, Data: state})
	}
	s.log.Info("match created", zap.Uint("match_id", m.ID), zap.String("status", m.Status))
	return state, nil
}

// Get returns the current state of a match, i.e. its latest snapshot.
func (s *Service) Get(ctx context.Context, matchID uint) (rules.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}
	sc, err := s.store.LatestScore(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}
	return stateFrom(m, sc), nil
}

// Summary is one row of the match list, enriched with the latest set
// counts when the match has been activated.
type Summary struct {
	ID                uint         `json:"id"`
	HomeTeamName      string       `json:"homeTeamName"`
	GuestTeamName     string       `json:"guestTeamName"`
	Status            rules.Status `json:"status"`
	ScheduledAt       *time.Time   `json:"scheduledAt"`
	Venue             *string      `json:"venue"`
	League            *string      `json:"league"`
	FederationMatchID *string      `json:"federationMatchId"`
	HomeSets          *int         `json:"homeSets"`
	GuestSets         *int         `json:"guestSets"`
}

// List returns all matches, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	ms, err := s.store.ListMatches(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(ms))
	for _, m := range ms {
		sum := Summary{
			ID:                m.ID,
			HomeTeamName:      m.HomeTeamName,
			GuestTeamName:     m.GuestTeamName,
			Status:            rules.Status(m.Status),
			ScheduledAt:       m.ScheduledAt,
			Venue:             m.Venue,
			League:            m.League,
			FederationMatchID: m.FederationMatchID,
		}
		if sc, err := s.store.LatestScore(ctx, m.ID); err == nil {
			home, guest := sc.HomeSets, sc.GuestSets
			sum.HomeSets, sum.GuestSets = &home, &guest
		} else if !errors.Is(err, store.ErrScoreNotFound) {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// History returns every snapshot of a match, oldest first.
func (s *Service) History(ctx context.Context, matchID uint) ([]rules.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	scs, err := s.store.ListScores(ctx, matchID)
	if err != nil {
		return nil, err
	}
	states := make([]rules.MatchState, 0, len(scs))
	for _, sc := range scs {
		states = append(states, stateFrom(m, sc))
	}
	return states, nil
}

// Dispatch applies one scoring action to a match and returns the new state.
// The whole read-apply-append-publish cycle runs under the match lock.
func (s *Service) Dispatch(ctx context.Context, matchID uint, action string, team rules.Team) (rules.MatchState, error) {
	switch action {
	case ActionAddPoint, ActionRemovePoint, ActionAddSet, ActionRemoveSet:
		if !team.Valid() {
			return rules.MatchState{}, ErrInvalidTeam
		}
	case ActionReset, ActionSwitchService, ActionUndo:
	default:
		return rules.MatchState{}, ErrUnknownAction
	}

	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	if action == ActionUndo {
		return s.undo(ctx, matchID)
	}

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}
	sc, err := s.store.LatestScore(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}
	state := stateFrom(m, sc)

	var next rules.MatchState
	switch action {
	case ActionAddPoint:
		next = rules.AddPoint(state, team)
	case ActionRemovePoint:
		next = rules.RemovePoint(state, team)
	case ActionReset:
		next = rules.Reset(state)
	case ActionSwitchService:
		next = rules.SwitchService(state)
	case ActionAddSet:
		next = rules.AddSet(state, team)
	case ActionRemoveSet:
		next = rules.RemoveSet(state, team)
	}

	// status flip and snapshot land together or not at all
	row := scoreRow(next)
	err = s.store.Transact(ctx, func(tx *store.Store) error {
		if string(next.Status) != m.Status {
			if err := tx.UpdateMatchStatus(ctx, matchID, next.Status); err != nil {
				return err
			}
		}
		return tx.AppendScore(ctx, &row)
	})
	if err != nil {
		return rules.MatchState{}, err
	}

	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventScore, Data: next})
	s.log.Info("action applied",
		zap.Uint("match_id", matchID),
		zap.String("action", action),
		zap.String("team", string(team)))
	return next, nil
}

// undo drops the latest snapshot and restores the one before it. The
// dropped snapshot may have finished the match, so the status is recomputed
// from the restored set counts and persisted when it differs.
func (s *Service) undo(ctx context.Context, matchID uint) (rules.MatchState, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}

	var state rules.MatchState
	err = s.store.Transact(ctx, func(tx *store.Store) error {
		prev, err := tx.UndoLastScore(ctx, matchID)
		if err != nil {
			return err
		}
		state = stateFrom(m, prev)
		correct := rules.StatusLive
		if rules.IsMatchOver(state.HomeSets, state.GuestSets) {
			correct = rules.StatusFinished
		}
		if string(correct) != m.Status {
			if err := tx.UpdateMatchStatus(ctx, matchID, correct); err != nil {
				return err
			}
			state.Status = correct
		}
		return nil
	})
	if err != nil {
		return rules.MatchState{}, err
	}

	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventScore, Data: state})
	s.log.Info("action undone", zap.Uint("match_id", matchID))
	return state, nil
}

// Timeout records a timeout for team in the current set and returns the new
// per-set count. The third timeout of a set is refused.
func (s *Service) Timeout(ctx context.Context, matchID uint, team rules.Team) (int, error) {
	if !team.Valid() {
		return 0, ErrInvalidTeam
	}

	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return 0, err
	}
	sc, err := s.store.LatestScore(ctx, matchID)
	if err != nil {
		return 0, err
	}

	used, err := s.store.CountTimeouts(ctx, matchID, team, sc.CurrentSet)
	if err != nil {
		return 0, err
	}
	if used >= maxTimeoutsPerSet {
		return int(used), ErrTimeoutLimit
	}

	if err := s.store.InsertTimeout(ctx, &store.Timeout{MatchID: matchID, Team: string(team), Set: sc.CurrentSet}); err != nil {
		return 0, err
	}

	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventTimeout, Data: types.TimeoutEvent{
		Team:     team,
		TeamName: teamName(m, team),
		Active:   true,
	}})
	return int(used) + 1, nil
}

// CancelTimeout removes the most recent timeout of team in the current set
// and returns the remaining per-set count.
func (s *Service) CancelTimeout(ctx context.Context, matchID uint, team rules.Team) (int, error) {
	if !team.Valid() {
		return 0, ErrInvalidTeam
	}

	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return 0, err
	}
	sc, err := s.store.LatestScore(ctx, matchID)
	if err != nil {
		return 0, err
	}

	if err := s.store.DeleteLastTimeout(ctx, matchID, team, sc.CurrentSet); err != nil {
		return 0, err
	}

	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventTimeout, Data: types.TimeoutEvent{
		Team:     team,
		TeamName: teamName(m, team),
		Active:   false,
	}})

	remaining, err := s.store.CountTimeouts(ctx, matchID, team, sc.CurrentSet)
	if err != nil {
		return 0, err
	}
	return int(remaining), nil
}

// Activate moves a match to live and inserts its initial snapshot unless
// one already exists (re-activating an aborted match keeps its history).
func (s *Service) Activate(ctx context.Context, matchID uint) (rules.MatchState, error) {
	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}

	if err := s.store.UpdateMatchStatus(ctx, matchID, rules.StatusLive); err != nil {
		return rules.MatchState{}, err
	}
	m.Status = string(rules.StatusLive)

	sc, err := s.store.LatestScore(ctx, matchID)
	if errors.Is(err, store.ErrScoreNotFound) {
		sc = initialScore(matchID)
		if err := s.store.AppendScore(ctx, &sc); err != nil {
			return rules.MatchState{}, err
		}
	} else if err != nil {
		return rules.MatchState{}, err
	}

	state := stateFrom(m, sc)
	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventMatch, Data: state})
	s.log.Info("match activated", zap.Uint("match_id", matchID))
	return state, nil
}

// Abort moves a live match back to upcoming, keeping its snapshots.
func (s *Service) Abort(ctx context.Context, matchID uint) error {
	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != string(rules.StatusLive) {
		return ErrMatchNotLive
	}

	if err := s.store.UpdateMatchStatus(ctx, matchID, rules.StatusUpcoming); err != nil {
		return err
	}
	m.Status = string(rules.StatusUpcoming)

	if sc, err := s.store.LatestScore(ctx, matchID); err == nil {
		s.hub.Publish(matchID, types.SSEEvent{Type: types.EventMatch, Data: stateFrom(m, sc)})
	}
	s.log.Info("match aborted", zap.Uint("match_id", matchID))
	return nil
}

// Cancel moves a live match back to upcoming and discards every snapshot
// and timeout record, as if it had never been played.
func (s *Service) Cancel(ctx context.Context, matchID uint) error {
	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Status != string(rules.StatusLive) {
		return ErrMatchNotLive
	}

	if err := s.store.UpdateMatchStatus(ctx, matchID, rules.StatusUpcoming); err != nil {
		return err
	}
	if err := s.store.DeleteScores(ctx, matchID); err != nil {
		return err
	}
	if err := s.store.DeleteTimeouts(ctx, matchID); err != nil {
		return err
	}

	m.Status = string(rules.StatusUpcoming)
	state := stateFrom(m, initialScore(matchID))
	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventMatch, Data: state})
	s.log.Info("match cancelled", zap.Uint("match_id", matchID))
	return nil
}

// Delete removes a match and everything recorded for it. The per-match
// lock entry is dropped too, so the lock map only grows with matches that
// still exist.
func (s *Service) Delete(ctx context.Context, matchID uint) error {
	l := s.lockFor(matchID)
	l.Lock()
	defer l.Unlock()

	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.locks, matchID)
	s.mu.Unlock()

	s.log.Info("match deleted", zap.Uint("match_id", matchID))
	return nil
}

// UpdateSettings applies the set fields of the patch and announces the
// refreshed state as a "match" event.
func (s *Service) UpdateSettings(ctx context.Context, matchID uint, req types.UpdateMatchRequest) (rules.MatchState, error) {
	updates := map[string]any{}
	if req.HomeTeamName != nil {
		updates["home_team_name"] = *req.HomeTeamName
	}
	if req.GuestTeamName != nil {
		updates["guest_team_name"] = *req.GuestTeamName
	}
	if req.HomeJerseyColor != nil {
		updates["home_jersey_color"] = *req.HomeJerseyColor
	}
	if req.GuestJerseyColor != nil {
		updates["guest_jersey_color"] = *req.GuestJerseyColor
	}
	if req.ShowJerseyColors != nil {
		updates["show_jersey_colors"] = *req.ShowJerseyColors
	}
	if req.ShowSetScores != nil {
		updates["show_set_scores"] = *req.ShowSetScores
	}

	if err := s.store.UpdateMatchSettings(ctx, matchID, updates); err != nil {
		return rules.MatchState{}, err
	}

	state, err := s.Get(ctx, matchID)
	if err != nil {
		return rules.MatchState{}, err
	}

	s.hub.Publish(matchID, types.SSEEvent{Type: types.EventMatch, Data: state})
	return state, nil
}

func teamName(m store.Match, team rules.Team) string {
	if team == rules.TeamHome {
		return m.HomeTeamName
	}
	return m.GuestTeamName
}
