package utils

import "time"

// RetryDelay returns the escalating delay before retry attempt n (1-indexed): base * 2^(n-1), capped at max.
func RetryDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}

	return delay
}
