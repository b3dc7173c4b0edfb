package cache

import (
	"fmt"
	"time"
)

// ConversationKey addresses the dialogue state of one user in one chat.
func ConversationKey(chatID, userID int64) string {
	return fmt.Sprintf("conv:%d:%d", chatID, userID)
}

func JobDetailsKey(jobID int64) string {
	return fmt.Sprintf("testops:job:%d", jobID)
}

// RateLimitKey buckets a user's events into fixed windows aligned to the window size.
func RateLimitKey(userID int64, now time.Time, window time.Duration) string {
	return fmt.Sprintf("ratelimit:%d:%d", userID, now.Truncate(window).Unix())
}

// APIRateLimitKey buckets admin API requests per client address.
func APIRateLimitKey(client string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("ratelimit:api:%s:%d", client, now.Truncate(window).Unix())
}
