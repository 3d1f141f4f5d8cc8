package rules

import "slices"

type Team string

const (
	TeamHome  Team = "home"
	TeamGuest Team = "guest"
)

// Valid reports whether t is one of the two known teams.
func (t Team) Valid() bool {
	return t == TeamHome || t == TeamGuest
}

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// SetScore is the final score of one completed set.
type SetScore struct {
	Home  int `json:"home"`
	Guest int `json:"guest"`
}

// MatchState is one immutable revision of a match. A new revision is
// produced per scoring action; revisions never share the SetScores slice.
type MatchState struct {
	MatchID          uint       `json:"matchId"`
	HomeTeamName     string     `json:"homeTeamName"`
	GuestTeamName    string     `json:"guestTeamName"`
	HomeJerseyColor  string     `json:"homeJerseyColor"`
	GuestJerseyColor string     `json:"guestJerseyColor"`
	ShowJerseyColors bool       `json:"showJerseyColors"`
	ShowSetScores    bool       `json:"showSetScores"`
	HomePoints       int        `json:"homePoints"`
	GuestPoints      int        `json:"guestPoints"`
	HomeSets         int        `json:"homeSets"`
	GuestSets        int        `json:"guestSets"`
	CurrentSet       int        `json:"currentSet"`
	SetScores        []SetScore `json:"setScores"`
	ServiceTeam      Team       `json:"serviceTeam"`
	Status           Status     `json:"status"`
}

// clone copies the state including its SetScores backing array, so the next
// revision can be built without aliasing the previous one.
func (s MatchState) clone() MatchState {
	next := s
	next.SetScores = slices.Clone(s.SetScores)
	return next
}

// NewState is the zero score line of a fresh live match.
func NewState(matchID uint) MatchState {
	return MatchState{
		MatchID:          matchID,
		HomeTeamName:     "Heim",
		GuestTeamName:    "Gast",
		HomeJerseyColor:  "#1e40af",
		GuestJerseyColor: "#dc2626",
		ShowJerseyColors: true,
		CurrentSet:       1,
		SetScores:        []SetScore{},
		ServiceTeam:      TeamHome,
		Status:           StatusLive,
	}
}
