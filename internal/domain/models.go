package domain

import (
	"sort"
	"time"
)

// Phase is the lifecycle stage of a round attempt.
type Phase string

const (
	PhaseSelecting Phase = "selecting"
	PhasePlaying   Phase = "playing"
	PhaseCompleted Phase = "completed"
)

// RewardState tracks the one-shot cerises credit of a completed attempt.
type RewardState string

const (
	RewardNotAttempted RewardState = "not_attempted"
	RewardInFlight     RewardState = "in_flight"
	RewardDone         RewardState = "done"
)

// Entity is a club that can be offered as an answer. League is the sub-group
// and Country the broader group used to source plausible distractors.
type Entity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl,omitempty"`
	League   string `json:"league,omitempty"`
	Country  string `json:"country,omitempty"`
}

// RoundItem is one featured player and the clubs accepted as correct for them.
type RoundItem struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	CorrectEntities []Entity `json:"correctEntities"`
}

// View strips the answers so the item can be sent to clients.
func (i RoundItem) View() ItemView {
	return ItemView{ID: i.ID, Name: i.Name, ImageURL: i.ImageURL, Tags: i.Tags}
}

// CorrectSet returns the ids of the correct entities.
func (i RoundItem) CorrectSet() map[string]struct{} {
	set := make(map[string]struct{}, len(i.CorrectEntities))
	for _, e := range i.CorrectEntities {
		set[e.ID] = struct{}{}
	}
	return set
}

// ItemView is the client-facing part of a RoundItem.
type ItemView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// RoundDefinition is a loaded Carrière Infernale question.
type RoundDefinition struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Season string      `json:"season,omitempty"`
	Active bool        `json:"active"`
	Items  []RoundItem `json:"items"`
}

// Summary returns the listing view of the round.
func (d RoundDefinition) Summary() RoundSummary {
	return RoundSummary{ID: d.ID, Title: d.Title, Season: d.Season}
}

// RoundSummary is an entry of the available rounds listing.
type RoundSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Season string `json:"season,omitempty"`
}

// CandidateFilter restricts a candidate pool query by category tags.
// Empty slices mean no restriction on that tag.
type CandidateFilter struct {
	Leagues   []string
	Countries []string
}

// Selection is the set of entity ids marked for the current item.
type Selection map[string]struct{}

// NewSelection builds a selection from ids, ignoring duplicates.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// IDs returns the sorted ids of the selection.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RoundItemSubmission is the frozen selection for one item.
type RoundItemSubmission struct {
	ItemID            string   `json:"itemId"`
	SelectedEntityIDs []string `json:"selectedEntityIds"`
}

// ItemVerdict is the oracle's detail for one submitted item.
type ItemVerdict struct {
	ItemID          string   `json:"itemId"`
	CorrectCount    int      `json:"correctCount"`
	IncorrectCount  int      `json:"incorrectCount"`
	PossibleCount   int      `json:"possibleCount"`
	CorrectEntities []string `json:"correctEntityIds,omitempty"`
	Perfect         bool     `json:"perfect"`
}

// Bonus is one itemized component of the reward.
type Bonus struct {
	Kind   string `json:"kind"`
	Amount int    `json:"amount"`
}

// RoundVerdict is the authoritative result returned by the oracle.
type RoundVerdict struct {
	Items          []ItemVerdict `json:"items"`
	CorrectCount   int           `json:"correctCount"`
	IncorrectCount int           `json:"incorrectCount"`
	PossibleCount  int           `json:"possibleCount"`
	Perfect        bool          `json:"perfect"`
	Score          int           `json:"score"`
	Reward         int           `json:"reward"`
	Bonuses        []Bonus       `json:"bonuses,omitempty"`
}

// SessionSnapshot is the state pushed to subscribers of a round session.
type SessionSnapshot struct {
	SessionID     string                `json:"sessionId"`
	UserID        string                `json:"userId"`
	Phase         Phase                 `json:"phase"`
	RoundID       string                `json:"roundId,omitempty"`
	Title         string                `json:"title,omitempty"`
	ItemIndex     int                   `json:"itemIndex"`
	ItemCount     int                   `json:"itemCount"`
	CurrentItem   *ItemView             `json:"currentItem,omitempty"`
	Candidates    []Entity              `json:"candidates,omitempty"`
	Selected      []string              `json:"selected,omitempty"`
	Locked        bool                  `json:"locked"`
	CorrectCount  int                   `json:"correctCount"`
	RemainingTime int                   `json:"remainingTime"`
	Submissions   []RoundItemSubmission `json:"submissions,omitempty"`
	Verdict       *RoundVerdict         `json:"verdict,omitempty"`
	Settled       bool                  `json:"settled"`
	Error         string                `json:"error,omitempty"`
	RewardState   RewardState           `json:"rewardState"`
	Credited      int                   `json:"credited"`
	Balance       int                   `json:"balance"`
	RewardError   string                `json:"rewardError,omitempty"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}
