package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOTPIsExpired(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	otp := OTP{ExpiresAt: now.Add(5 * time.Minute)}
	assert.False(t, otp.IsExpired(now))
	assert.False(t, otp.IsExpired(now.Add(5*time.Minute))) // boundary still valid
	assert.True(t, otp.IsExpired(now.Add(5*time.Minute+time.Second)))
}
