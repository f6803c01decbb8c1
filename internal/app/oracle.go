package app

import (
	"context"

	"clafootix/internal/domain"
)

// RoundRepository loads round definitions (from cache/backing store).
type RoundRepository interface {
	LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error)
	ListAvailableRounds(ctx context.Context) ([]domain.RoundSummary, error)
}

// CandidatePool returns clubs matching category filters, excluding the given ids.
type CandidatePool interface {
	FetchCandidates(ctx context.Context, filter domain.CandidateFilter, excludeIDs []string, limit int) ([]domain.Entity, error)
}

// RoundValidator is the oracle's authoritative scoring procedure.
type RoundValidator interface {
	ValidateRound(ctx context.Context, questionID string, submissions []domain.RoundItemSubmission, remainingTime int) (domain.RoundVerdict, error)
}

// RewardCreditor credits cerises to a user's wallet. Implementations must
// apply a given idempotency key at most once.
type RewardCreditor interface {
	CreditReward(ctx context.Context, userID string, amount int, idempotencyKey string) (int, error)
}

// Oracle bundles every collaborator a round session talks to.
type Oracle struct {
	Rounds    RoundRepository
	Pool      CandidatePool
	Validator RoundValidator
	Rewards   RewardCreditor
}
