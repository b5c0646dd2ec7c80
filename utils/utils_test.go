package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp := GenerateOTP()
		assert.Len(t, otp, 5)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9')
		}
		// Leading digit never zero with the current range
		assert.NotEqual(t, byte('0'), otp[0])
		seen[otp] = true
	}
	// 50 draws from 90000 values should not all collide
	assert.Greater(t, len(seen), 1)
}
