package services

import "quizzer-backend/internal/models"

// SelectDifficulty picks the tier for a new quiz from the user's past scores
// across all subjects and grades.
func SelectDifficulty(scores []int) models.Difficulty {
	if len(scores) == 0 {
		return models.DifficultyEasy
	}

	sum := 0
	for _, s := range scores {
		sum += s
	}
	avg := float64(sum) / float64(len(scores))

	switch {
	case avg > 80:
		return models.DifficultyHard
	case avg > 50:
		return models.DifficultyMedium
	default:
		return models.DifficultyEasy
	}
}
