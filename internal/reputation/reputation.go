// Package reputation holds the pure scoring rules: how a vote transition
// moves an author's reputation, which role tier an upvote count earns, and
// the flat bonus for an accepted answer.
package reputation

import "github.com/emilythestrangee/campus-qa/backend/internal/models"

const (
	UpvoteGain      = 10
	DownvotePenalty = 2
	FlipUpGain      = 12
	FlipDownPenalty = 12

	AcceptBonus = 15

	// ProblemSolverThreshold is the reputation an acceptance bonus must
	// reach for the Problem Solver badge.
	ProblemSolverThreshold = 100
)

const (
	intermediateThreshold = 100
	expertThreshold       = 500
	masterThreshold       = 1000
)

// Delta returns the reputation change for the author of an answer whose
// vote from one voter moved from oldValue to oldValue+voteDiff. Values are in
// {-1, 0, 1}. Transitions that leave the value unchanged score zero.
func Delta(oldValue, voteDiff int) int {
	newValue := oldValue + voteDiff
	switch {
	case oldValue == 0 && newValue == 1:
		return UpvoteGain
	case oldValue == -1 && newValue == 1:
		return FlipUpGain
	case oldValue == 0 && newValue == -1:
		return -DownvotePenalty
	case oldValue == 1 && newValue == -1:
		return -FlipDownPenalty
	case oldValue == 1 && newValue == 0:
		return -UpvoteGain
	case oldValue == -1 && newValue == 0:
		return DownvotePenalty
	}
	return 0
}

// Apply adds delta to current and clamps the result at zero.
func Apply(current, delta int) int {
	if next := current + delta; next > 0 {
		return next
	}
	return 0
}

func ClassifyRole(answerUpvotesReceived int) models.Role {
	switch {
	case answerUpvotesReceived >= masterThreshold:
		return models.RoleMaster
	case answerUpvotesReceived >= expertThreshold:
		return models.RoleExpert
	case answerUpvotesReceived >= intermediateThreshold:
		return models.RoleIntermediate
	default:
		return models.RoleNewbie
	}
}

// EarnsProblemSolver reports whether an acceptance bonus that brought the
// author to reputation should grant the Problem Solver badge.
func EarnsProblemSolver(u *models.User) bool {
	return !u.HasBadge(models.BadgeProblemSolver) && u.Reputation >= ProblemSolverThreshold
}
