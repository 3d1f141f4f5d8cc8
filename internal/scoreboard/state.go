package scoreboard

import (
	"slices"

	"github.com/michelutke/volleyball-scoreboard/internal/rules"
	"github.com/michelutke/volleyball-scoreboard/internal/store"
)

// stateFrom joins a match row and a score row into one MatchState.
func stateFrom(m store.Match, sc store.Score) rules.MatchState {
	setScores := sc.SetScores
	if setScores == nil {
		setScores = []rules.SetScore{}
	}
	return rules.MatchState{
		MatchID:          m.ID,
		HomeTeamName:     m.HomeTeamName,
		GuestTeamName:    m.GuestTeamName,
		HomeJerseyColor:  m.HomeJerseyColor,
		GuestJerseyColor: m.GuestJerseyColor,
		ShowJerseyColors: m.ShowJerseyColors,
		ShowSetScores:    m.ShowSetScores,
		HomePoints:       sc.HomePoints,
		GuestPoints:      sc.GuestPoints,
		HomeSets:         sc.HomeSets,
		GuestSets:        sc.GuestSets,
		CurrentSet:       sc.CurrentSet,
		SetScores:        setScores,
		ServiceTeam:      rules.Team(sc.ServiceTeam),
		Status:           rules.Status(m.Status),
	}
}

// scoreRow turns a state revision into its snapshot row.
func scoreRow(state rules.MatchState) store.Score {
	return store.Score{
		MatchID:     state.MatchID,
		HomePoints:  state.HomePoints,
		GuestPoints: state.GuestPoints,
		HomeSets:    state.HomeSets,
		GuestSets:   state.GuestSets,
		CurrentSet:  state.CurrentSet,
		SetScores:   slices.Clone(state.SetScores),
		ServiceTeam: string(state.ServiceTeam),
	}
}

// initialScore is the 0:0 first-set snapshot a match is activated with.
func initialScore(matchID uint) store.Score {
	return store.Score{
		MatchID:     matchID,
		CurrentSet:  1,
		SetScores:   []rules.SetScore{},
		ServiceTeam: string(rules.TeamHome),
	}
}
