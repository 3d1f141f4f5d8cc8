// Package rules implements the volleyball scoring rules as pure value
// transformations. Nothing here touches storage or transport; every function
// takes a MatchState and returns a new one without mutating its input.
package rules

const (
	pointsToWinSet      = 25
	pointsToWinTiebreak = 15
	minPointDiff        = 2
	setsToWinMatch      = 3
	tiebreakSet         = 5
)

// IsTiebreak reports whether the given set is the deciding fifth set.
func IsTiebreak(currentSet int) bool {
	return currentSet == tiebreakSet
}

// PointsToWin returns the target score for the given set (15 in the
// tiebreak, 25 otherwise). The target is a floor, not a cap: with a
// one-point margin the set continues past it.
func PointsToWin(currentSet int) int {
	if IsTiebreak(currentSet) {
		return pointsToWinTiebreak
	}
	return pointsToWinSet
}

// IsSetOver reports whether a set is decided: one team reached the target
// and leads by at least two.
func IsSetOver(homePoints, guestPoints, currentSet int) bool {
	target := PointsToWin(currentSet)
	maxPoints := max(homePoints, guestPoints)
	diff := homePoints - guestPoints
	if diff < 0 {
		diff = -diff
	}
	return maxPoints >= target && diff >= minPointDiff
}

// SetWinner returns the winning team of a set, or false if the set is
// still running.
func SetWinner(homePoints, guestPoints, currentSet int) (Team, bool) {
	if !IsSetOver(homePoints, guestPoints, currentSet) {
		return "", false
	}
	if homePoints > guestPoints {
		return TeamHome, true
	}
	return TeamGuest, true
}

// IsMatchOver reports whether either team has won three sets.
func IsMatchOver(homeSets, guestSets int) bool {
	return homeSets >= setsToWinMatch || guestSets >= setsToWinMatch
}

// MatchWinner returns the winner of a finished match, or false while the
// match is still running.
func MatchWinner(homeSets, guestSets int) (Team, bool) {
	if !IsMatchOver(homeSets, guestSets) {
		return "", false
	}
	if homeSets >= setsToWinMatch {
		return TeamHome, true
	}
	return TeamGuest, true
}

// AddPoint awards a rally to the given team. Service passes to the scoring
// team. If the rally decides the set, the set score is recorded and the
// winner's set count incremented; if that decides the match the state is
// frozen as finished, otherwise the next set starts at 0:0. Scoring against
// a finished match is a no-op and returns the input unchanged.
func AddPoint(s MatchState, team Team) MatchState {
	if IsMatchOver(s.HomeSets, s.GuestSets) {
		return s
	}

	next := s.clone()

	if team == TeamHome {
		next.HomePoints++
	} else {
		next.GuestPoints++
	}
	next.ServiceTeam = team

	winner, over := SetWinner(next.HomePoints, next.GuestPoints, next.CurrentSet)
	if !over {
		return next
	}

	next.SetScores = append(next.SetScores, SetScore{Home: next.HomePoints, Guest: next.GuestPoints})
	if winner == TeamHome {
		next.HomeSets++
	} else {
		next.GuestSets++
	}

	if IsMatchOver(next.HomeSets, next.GuestSets) {
		// Final set score stays visible on the frozen state.
		next.Status = StatusFinished
	} else {
		next.CurrentSet++
		next.HomePoints = 0
		next.GuestPoints = 0
	}

	return next
}

// RemovePoint takes a point back from the given team, floored at zero. It is
// a correction primitive for mis-clicks within the running set: it never
// rewinds a completed set, never moves the service and never changes the
// match status. Reversing a set completion goes through history undo instead.
func RemovePoint(s MatchState, team Team) MatchState {
	next := s.clone()

	if team == TeamHome && next.HomePoints > 0 {
		next.HomePoints--
	} else if team == TeamGuest && next.GuestPoints > 0 {
		next.GuestPoints--
	}

	return next
}

// Reset returns the state to the start of a live match, keeping only the
// display fields (names, colors, flags).
func Reset(s MatchState) MatchState {
	next := s.clone()
	next.HomePoints = 0
	next.GuestPoints = 0
	next.HomeSets = 0
	next.GuestSets = 0
	next.CurrentSet = 1
	next.SetScores = []SetScore{}
	next.ServiceTeam = TeamHome
	next.Status = StatusLive
	return next
}

// AddSet bumps a team's set counter directly. Manual correction escape
// hatch: no point interaction, no status recompute.
func AddSet(s MatchState, team Team) MatchState {
	next := s.clone()
	if team == TeamHome {
		next.HomeSets++
	} else {
		next.GuestSets++
	}
	return next
}

// RemoveSet decrements a team's set counter, floored at zero. Like AddSet it
// never recomputes the status.
func RemoveSet(s MatchState, team Team) MatchState {
	next := s.clone()
	if team == TeamHome && next.HomeSets > 0 {
		next.HomeSets--
	} else if team == TeamGuest && next.GuestSets > 0 {
		next.GuestSets--
	}
	return next
}

// SwitchService flips the serving team without touching the score.
func SwitchService(s MatchState) MatchState {
	next := s.clone()
	if next.ServiceTeam == TeamHome {
		next.ServiceTeam = TeamGuest
	} else {
		next.ServiceTeam = TeamHome
	}
	return next
}
