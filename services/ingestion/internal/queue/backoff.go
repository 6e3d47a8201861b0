package queue

import "time"

const maxBackoff = 60 * time.Second

// backoffDelay doubles from 1s per delivery and caps at maxBackoff.
func backoffDelay(numDelivered uint64) time.Duration {
	attempt := max(numDelivered, 1)
	if attempt > 7 {
		return maxBackoff
	}
	return min(time.Duration(1<<(attempt-1))*time.Second, maxBackoff)
}
