package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	reminderKeyPrefix = "reminder_sent:"

	// ReminderDedupeTTL keeps the dedupe marker long enough to cover
	// restarts and clock drift around the daily run, then lets Redis
	// reclaim it.
	ReminderDedupeTTL = 48 * time.Hour
)

// reminderKey marks one recipient as reminded on one calendar day.
func reminderKey(day, email string) string {
	return reminderKeyPrefix + day + ":" + email
}

// MarkReminderSent atomically claims the right to send today's
// reminder to email. It returns true when this caller won the claim
// and false when a reminder was already sent for that day.
func (c *Cache) MarkReminderSent(ctx context.Context, day, email string) (bool, error) {
	ok, err := c.client.SetNX(ctx, reminderKey(day, email), 1, ReminderDedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx reminder marker: %w", err)
	}
	return ok, nil
}
