package vaultcrypto

import "strings"

// StrengthResult is the outcome of scoring a candidate master password.
type StrengthResult struct {
	IsValid  bool
	Score    int
	Feedback []string
}

// ScorePassword grades password on a 0..7 scale. Length under 12 characters
// always fails validity regardless of score.
func ScorePassword(password string) StrengthResult {
	var score int
	var feedback []string

	length := len(password)
	switch {
	case length >= 16:
		score += 3
	case length >= 12:
		score += 2
	default:
		feedback = append(feedback, "use at least 12 characters")
	}

	var hasLower, hasUpper, hasDigit, hasOther bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasOther = true
		}
	}
	if hasLower {
		score++
	} else {
		feedback = append(feedback, "add a lowercase letter")
	}
	if hasUpper {
		score++
	} else {
		feedback = append(feedback, "add an uppercase letter")
	}
	if hasDigit {
		score++
	} else {
		feedback = append(feedback, "add a digit")
	}
	if hasOther {
		score++
	} else {
		feedback = append(feedback, "add a symbol")
	}

	lowered := strings.ToLower(password)
	if strings.Contains(lowered, "password") || strings.Contains(lowered, "123456") {
		score -= 3
		feedback = append(feedback, "avoid common substrings like \"password\" or \"123456\"")
	}
	if score < 0 {
		score = 0
	}

	return StrengthResult{
		IsValid:  length >= 12,
		Score:    score,
		Feedback: feedback,
	}
}
