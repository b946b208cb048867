package utils

import (
	"fmt"
	"lms/config"
	"lms/scorm"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// logReaper logs reaper events with timestamp
func logReaper(message string) {
	log.Printf("[SESSION-REAPER %s] %s", time.Now().Format(time.RFC3339), message)
}

// reapIdleSessions terminates runtime sessions whose content frame went away
// without calling Terminate. Terminating flushes their element tables, so the
// data-loss window stays bounded by the idle cutoff instead of being open
// ended.
func reapIdleSessions(registry *scorm.Registry) {
	cutoff := time.Duration(config.AppConfig.SessionIdleMinutes) * time.Minute
	if reaped := registry.ReapIdle(cutoff); reaped > 0 {
		logReaper(fmt.Sprintf("Reaped %d idle sessions", reaped))
	}
}

// InitializeSessionReaper starts the cron job that sweeps abandoned runtime
// sessions every minute
func InitializeSessionReaper(registry *scorm.Registry) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("* * * * *", func() { reapIdleSessions(registry) }); err != nil {
		log.Fatalf("Failed to schedule session reaper: %v", err)
	}

	c.Start()
	logReaper("Session reaper scheduler started")
	return c
}
