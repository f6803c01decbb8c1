package memory

import "clafootix/internal/domain"

// Reward rules of the reference scorer. The validate_carriere_infernale SQL
// function applies the same rules so both backends return the same verdicts.
const (
	pointsPerCorrect    = 10
	penaltyPerIncorrect = 5
	pointsPerSecondLeft = 2
	maxBaseReward       = 15
	perfectItemBonus    = 2
	perfectRoundBonus   = 10
	secondsPerTimeBonus = 10
)

// ScoreRound computes the verdict of a submitted round against its definition.
// Submissions for unknown items and repeated submissions are ignored.
func ScoreRound(round domain.RoundDefinition, submissions []domain.RoundItemSubmission, remainingTime int) domain.RoundVerdict {
	byItem := make(map[string][]string, len(submissions))
	for _, sub := range submissions {
		if _, dup := byItem[sub.ItemID]; dup {
			continue
		}
		byItem[sub.ItemID] = sub.SelectedEntityIDs
	}
	if remainingTime < 0 {
		remainingTime = 0
	}

	verdict := domain.RoundVerdict{Items: make([]domain.ItemVerdict, 0, len(round.Items))}
	perfectItems := 0
	for _, item := range round.Items {
		correct := item.CorrectSet()
		iv := domain.ItemVerdict{ItemID: item.ID, PossibleCount: len(correct)}
		seen := make(map[string]struct{})
		for _, id := range byItem[item.ID] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := correct[id]; ok {
				iv.CorrectCount++
				iv.CorrectEntities = append(iv.CorrectEntities, id)
			} else {
				iv.IncorrectCount++
			}
		}
		iv.Perfect = iv.PossibleCount > 0 && iv.CorrectCount == iv.PossibleCount && iv.IncorrectCount == 0
		if iv.Perfect {
			perfectItems++
		}
		verdict.CorrectCount += iv.CorrectCount
		verdict.IncorrectCount += iv.IncorrectCount
		verdict.PossibleCount += iv.PossibleCount
		verdict.Items = append(verdict.Items, iv)
	}
	verdict.Perfect = verdict.PossibleCount > 0 && verdict.CorrectCount == verdict.PossibleCount && verdict.IncorrectCount == 0

	score := verdict.CorrectCount*pointsPerCorrect - verdict.IncorrectCount*penaltyPerIncorrect
	if verdict.CorrectCount > 0 {
		score += remainingTime * pointsPerSecondLeft
	}
	if score < 0 {
		score = 0
	}
	verdict.Score = score

	reward := verdict.CorrectCount
	if reward > maxBaseReward {
		reward = maxBaseReward
	}
	if perfectItems > 0 {
		verdict.Bonuses = append(verdict.Bonuses, domain.Bonus{Kind: "perfect_items", Amount: perfectItems * perfectItemBonus})
	}
	if verdict.Perfect {
		verdict.Bonuses = append(verdict.Bonuses, domain.Bonus{Kind: "perfect_round", Amount: perfectRoundBonus})
	}
	if verdict.CorrectCount > 0 && remainingTime >= secondsPerTimeBonus {
		verdict.Bonuses = append(verdict.Bonuses, domain.Bonus{Kind: "time", Amount: remainingTime / secondsPerTimeBonus})
	}
	for _, b := range verdict.Bonuses {
		reward += b.Amount
	}
	verdict.Reward = reward
	return verdict
}
