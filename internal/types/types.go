// Package types holds the wire formats shared by the HTTP, SSE and
// websocket surfaces.
package types

import "github.com/michelutke/volleyball-scoreboard/internal/rules"

// Event type tags carried in the SSE envelope.
const (
	EventScore   = "score"
	EventTimeout = "timeout"
	EventMatch   = "match"
)

// SSEEvent is the envelope pushed to every stream subscriber. Data is a
// full rules.MatchState for "score" and "match" events and a TimeoutEvent
// for "timeout" events.
type SSEEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// TimeoutEvent announces a timeout being taken (Active) or cancelled.
type TimeoutEvent struct {
	Team     rules.Team `json:"team"`
	TeamName string     `json:"teamName"`
	Active   bool       `json:"active"`
}

// UpdateMatchRequest is the PUT body for a match. A non-empty Action makes
// it a scoring action; otherwise the pointer fields form a settings patch
// and only the set ones are applied.
type UpdateMatchRequest struct {
	Action string     `json:"action,omitempty"`
	Team   rules.Team `json:"team,omitempty"`

	HomeTeamName     *string `json:"homeTeamName,omitempty"`
	GuestTeamName    *string `json:"guestTeamName,omitempty"`
	HomeJerseyColor  *string `json:"homeJerseyColor,omitempty"`
	GuestJerseyColor *string `json:"guestJerseyColor,omitempty"`
	ShowJerseyColors *bool   `json:"showJerseyColors,omitempty"`
	ShowSetScores    *bool   `json:"showSetScores,omitempty"`
}

// TimeoutRequest is the body for taking or cancelling a timeout.
type TimeoutRequest struct {
	Team rules.Team `json:"team"`
}

// TimeoutResponse reports the per-set usage after a take or cancel.
type TimeoutResponse struct {
	OK           bool `json:"ok"`
	TimeoutsUsed int  `json:"timeoutsUsed"`
}

// ClientMessage is an inbound control-panel websocket frame.
type ClientMessage struct {
	Type   string     `json:"type"` // "action" | "timeout" | "cancelTimeout"
	Action string     `json:"action,omitempty"`
	Team   rules.Team `json:"team,omitempty"`
}

// ErrorMessage is sent to a websocket client when its command is rejected.
type ErrorMessage struct {
	Type  string `json:"type"` // always "error"
	Error string `json:"error"`
}
