package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveState(home, guest, set int) MatchState {
	s := NewState(1)
	s.HomePoints = home
	s.GuestPoints = guest
	s.CurrentSet = set
	return s
}

func TestIsSetOver(t *testing.T) {
	cases := []struct {
		name             string
		home, guest, set int
		want             bool
	}{
		{name: "below target", home: 20, guest: 18, set: 1, want: false},
		{name: "exactly 25 with margin", home: 25, guest: 23, set: 1, want: true},
		{name: "25-24 is deuce", home: 25, guest: 24, set: 1, want: false},
		{name: "26-25 still running", home: 26, guest: 25, set: 1, want: false},
		{name: "27-25 decided", home: 27, guest: 25, set: 1, want: true},
		{name: "guest side decided", home: 21, guest: 25, set: 3, want: true},
		{name: "long deuce decided", home: 33, guest: 31, set: 2, want: true},
		{name: "tiebreak at 15", home: 10, guest: 15, set: 5, want: true},
		{name: "tiebreak 15-14 continues", home: 15, guest: 14, set: 5, want: false},
		{name: "tiebreak 25 rule does not apply", home: 15, guest: 13, set: 4, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsSetOver(tc.home, tc.guest, tc.set))
		})
	}
}

func TestSetWinner(t *testing.T) {
	_, over := SetWinner(24, 23, 1)
	assert.False(t, over)

	winner, over := SetWinner(25, 23, 1)
	require.True(t, over)
	assert.Equal(t, TeamHome, winner)

	winner, over = SetWinner(13, 15, 5)
	require.True(t, over)
	assert.Equal(t, TeamGuest, winner)
}

func TestAddPoint_MidSet(t *testing.T) {
	s := liveState(10, 8, 1)
	s.ServiceTeam = TeamHome

	next := AddPoint(s, TeamGuest)

	assert.Equal(t, 10, next.HomePoints)
	assert.Equal(t, 9, next.GuestPoints)
	assert.Equal(t, TeamGuest, next.ServiceTeam, "service passes to the scoring team")
	assert.Equal(t, 1, next.CurrentSet)
	assert.Empty(t, next.SetScores)

	// input untouched
	assert.Equal(t, 8, s.GuestPoints)
	assert.Equal(t, TeamHome, s.ServiceTeam)
}

func TestAddPoint_CompletesSet(t *testing.T) {
	s := liveState(24, 23, 1)

	next := AddPoint(s, TeamHome)

	assert.Equal(t, 0, next.HomePoints)
	assert.Equal(t, 0, next.GuestPoints)
	assert.Equal(t, 1, next.HomeSets)
	assert.Equal(t, 0, next.GuestSets)
	assert.Equal(t, 2, next.CurrentSet)
	require.Len(t, next.SetScores, 1)
	assert.Equal(t, SetScore{Home: 25, Guest: 23}, next.SetScores[0])
	assert.Equal(t, StatusLive, next.Status)
}

func TestAddPoint_DeuceContinuesPastTarget(t *testing.T) {
	s := liveState(24, 24, 1)

	next := AddPoint(s, TeamHome)

	assert.Equal(t, 25, next.HomePoints)
	assert.Equal(t, 24, next.GuestPoints)
	assert.Equal(t, 0, next.HomeSets)
	assert.Equal(t, 1, next.CurrentSet)
	assert.Empty(t, next.SetScores)
}

func TestAddPoint_DeuceDecidedByTwo(t *testing.T) {
	s := liveState(26, 25, 1)

	next := AddPoint(s, TeamHome)

	require.Len(t, next.SetScores, 1)
	assert.Equal(t, SetScore{Home: 27, Guest: 25}, next.SetScores[0])
	assert.Equal(t, 1, next.HomeSets)
	assert.Equal(t, 2, next.CurrentSet)
}

func TestAddPoint_TiebreakFinishesMatch(t *testing.T) {
	s := liveState(14, 10, 5)
	s.HomeSets = 2
	s.GuestSets = 2
	s.SetScores = []SetScore{
		{Home: 25, Guest: 20},
		{Home: 23, Guest: 25},
		{Home: 25, Guest: 18},
		{Home: 20, Guest: 25},
	}

	next := AddPoint(s, TeamHome)

	assert.Equal(t, StatusFinished, next.Status)
	assert.Equal(t, 3, next.HomeSets)
	assert.Equal(t, 2, next.GuestSets)
	assert.Equal(t, 5, next.CurrentSet, "finished match keeps its last set")
	assert.Equal(t, 15, next.HomePoints, "final points stay frozen")
	assert.Equal(t, 10, next.GuestPoints)
	require.Len(t, next.SetScores, 5)
	assert.Equal(t, SetScore{Home: 15, Guest: 10}, next.SetScores[4])
}

func TestAddPoint_FinishedMatchIsNoOp(t *testing.T) {
	s := liveState(15, 10, 5)
	s.HomeSets = 3
	s.GuestSets = 1
	s.Status = StatusFinished

	next := AddPoint(s, TeamGuest)

	assert.Equal(t, s, next)
}

func TestAddPoint_SetScoresInvariant(t *testing.T) {
	s := NewState(1)
	// play home through two full sets and a few extra rallies
	for i := 0; i < 54; i++ {
		s = AddPoint(s, TeamHome)
		assert.Equal(t, len(s.SetScores), s.HomeSets+s.GuestSets)
		if s.Status != StatusFinished {
			assert.Equal(t, len(s.SetScores)+1, s.CurrentSet)
		}
	}
	assert.Equal(t, 2, s.HomeSets)
	assert.Equal(t, 4, s.HomePoints)
}

func TestAddPoint_DoesNotAliasSetScores(t *testing.T) {
	s := liveState(24, 10, 1)
	first := AddPoint(s, TeamHome)
	second := AddPoint(first, TeamGuest)

	second.SetScores[0].Home = 99
	assert.Equal(t, 25, first.SetScores[0].Home)
}

func TestRemovePoint(t *testing.T) {
	s := liveState(5, 0, 2)
	s.ServiceTeam = TeamGuest

	next := RemovePoint(s, TeamHome)
	assert.Equal(t, 4, next.HomePoints)
	assert.Equal(t, TeamGuest, next.ServiceTeam, "correction keeps the service")

	next = RemovePoint(next, TeamGuest)
	assert.Equal(t, 0, next.GuestPoints, "floored at zero")
	assert.Equal(t, 2, next.CurrentSet)
	assert.Equal(t, StatusLive, next.Status)
}

func TestReset(t *testing.T) {
	s := liveState(12, 9, 4)
	s.HomeTeamName = "VBC Aarau"
	s.GuestTeamName = "TSV Chur"
	s.HomeSets = 2
	s.GuestSets = 1
	s.SetScores = []SetScore{{Home: 25, Guest: 20}, {Home: 25, Guest: 23}, {Home: 22, Guest: 25}}
	s.ServiceTeam = TeamGuest
	s.Status = StatusFinished

	next := Reset(s)

	assert.Equal(t, 0, next.HomePoints)
	assert.Equal(t, 0, next.GuestPoints)
	assert.Equal(t, 0, next.HomeSets)
	assert.Equal(t, 0, next.GuestSets)
	assert.Equal(t, 1, next.CurrentSet)
	assert.Empty(t, next.SetScores)
	assert.Equal(t, TeamHome, next.ServiceTeam)
	assert.Equal(t, StatusLive, next.Status)
	assert.Equal(t, "VBC Aarau", next.HomeTeamName)
	assert.Equal(t, "TSV Chur", next.GuestTeamName)
}

func TestAddRemoveSet(t *testing.T) {
	s := liveState(0, 0, 1)

	next := AddSet(s, TeamGuest)
	assert.Equal(t, 1, next.GuestSets)
	assert.Equal(t, StatusLive, next.Status)

	next = AddSet(AddSet(next, TeamGuest), TeamGuest)
	assert.Equal(t, 3, next.GuestSets)
	assert.Equal(t, StatusLive, next.Status, "manual set adjustment never flips the status")

	next = RemoveSet(next, TeamGuest)
	assert.Equal(t, 2, next.GuestSets)

	next = RemoveSet(s, TeamHome)
	assert.Equal(t, 0, next.HomeSets, "floored at zero")
}

func TestSwitchService(t *testing.T) {
	s := liveState(7, 7, 1)
	s.ServiceTeam = TeamHome

	next := SwitchService(s)
	assert.Equal(t, TeamGuest, next.ServiceTeam)
	assert.Equal(t, TeamHome, SwitchService(next).ServiceTeam)
	assert.Equal(t, 7, next.HomePoints)
}
