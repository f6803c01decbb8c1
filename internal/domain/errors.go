package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a user has no round session.
	ErrSessionNotFound = errors.New("round session not found")
	// ErrRoundNotFound indicates the requested question does not exist.
	ErrRoundNotFound = errors.New("round not found")
	// ErrNoActiveRounds is returned when a random pick has nothing to pick from.
	ErrNoActiveRounds = errors.New("no active rounds available")
	// ErrEmptyRound indicates a round definition without items.
	ErrEmptyRound = errors.New("round has no items")
	// ErrRoundNotPlaying is returned by operations that need a round in progress.
	ErrRoundNotPlaying = errors.New("round is not in progress")
	// ErrItemMismatch indicates a validation for an item that is not the current one.
	ErrItemMismatch = errors.New("item is not the current item")
	// ErrPresenterLocked is returned once the item's selection has been frozen.
	ErrPresenterLocked = errors.New("item selection is locked")
	// ErrPresenterNotReady is returned while the candidate pool is still being built.
	ErrPresenterNotReady = errors.New("item candidates are not ready")
	// ErrEntityNotInPool indicates a toggle for an entity that was not offered.
	ErrEntityNotInPool = errors.New("entity is not in the candidate pool")
	// ErrUnauthorized is returned when no user identity could be established.
	ErrUnauthorized = errors.New("unauthorized")
)

// RoundLoadError reports a failed round fetch; the session stays in selection.
type RoundLoadError struct {
	QuestionID string
	Err        error
}

func (e *RoundLoadError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("load round: %v", e.Err)
	}
	return fmt.Sprintf("load round %s: %v", e.QuestionID, e.Err)
}

func (e *RoundLoadError) Unwrap() error { return e.Err }

// ValidationError reports a failed oracle scoring call after submissions were frozen.
type ValidationError struct {
	QuestionID string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate round %s: %v", e.QuestionID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RewardCreditError reports a failed cerises credit. It never fails the round.
type RewardCreditError struct {
	UserID string
	Amount int
	Err    error
}

func (e *RewardCreditError) Error() string {
	return fmt.Sprintf("credit %d cerises to %s: %v", e.Amount, e.UserID, e.Err)
}

func (e *RewardCreditError) Unwrap() error { return e.Err }
