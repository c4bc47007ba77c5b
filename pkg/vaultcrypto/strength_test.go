package vaultcrypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePasswordRejectsShort(t *testing.T) {
	result := ScorePassword("Short1!")
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Feedback)
}

func TestScorePasswordRewardsLength(t *testing.T) {
	short := ScorePassword("aaaaaaaaaaaA1!")   // 14 chars, >=12
	long := ScorePassword("aaaaaaaaaaaaaaaaA1!") // 19 chars, >=16
	assert.True(t, short.IsValid)
	assert.True(t, long.IsValid)
	assert.Greater(t, long.Score, short.Score)
}

func TestScorePasswordPenalizesCommonSubstrings(t *testing.T) {
	clean := ScorePassword("Xk9#mQ7$wZ2@Lp")
	common := ScorePassword("mypassword123456extra")
	assert.Less(t, common.Score, clean.Score)
}

func TestScorePasswordScoreNeverNegative(t *testing.T) {
	result := ScorePassword("password123456")
	assert.GreaterOrEqual(t, result.Score, 0)
}
