package utils

import (
	"agriconnect/database"
	"agriconnect/models"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[AUTH-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// purgeExpiredOTPs hard-deletes login codes past their expiry and password
// reset rows older than a day. Both tables are single-use and short-lived;
// nothing reads an expired row.
func purgeExpiredOTPs() {
	db := database.Database.Db
	now := time.Now()

	result := db.Unscoped().Where("expires_at < ?", now).Delete(&models.OTP{})
	if result.Error != nil {
		logScheduler("Error purging expired OTPs: " + result.Error.Error())
	} else if result.RowsAffected > 0 {
		logScheduler("Purged expired OTP rows")
	}

	dayAgo := now.Add(-24 * time.Hour)
	result = db.Unscoped().Where("created_at < ?", dayAgo).Delete(&models.PasswordReset{})
	if result.Error != nil {
		logScheduler("Error purging stale password resets: " + result.Error.Error())
	} else if result.RowsAffected > 0 {
		logScheduler("Purged stale password reset rows")
	}
}

// StartAuthScheduler runs auth-table hygiene every 15 minutes.
func StartAuthScheduler() *cron.Cron {
	c := cron.New()

	_, err := c.AddFunc("*/15 * * * *", purgeExpiredOTPs)
	if err != nil {
		log.Fatalf("Failed to register auth scheduler: %v", err)
	}

	c.Start()
	logScheduler("Auth scheduler started")
	return c
}
