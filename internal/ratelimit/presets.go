package ratelimit

import "time"

// Named presets for throttling-sensitive operations. Authentication-adjacent
// presets are stricter than general API traffic.
var (
	Auth = Config{
		MaxRequests: 10,
		Window:      15 * time.Minute,
		KeyPrefix:   "auth",
	}

	Login = Config{
		MaxRequests: 5,
		Window:      15 * time.Minute,
		KeyPrefix:   "login",
	}

	PasswordReset = Config{
		MaxRequests: 3,
		Window:      time.Hour,
		KeyPrefix:   "pwreset",
	}

	API = Config{
		MaxRequests: 100,
		Window:      time.Minute,
		KeyPrefix:   "api",
	}

	Bulk = Config{
		MaxRequests: 10,
		Window:      time.Hour,
		KeyPrefix:   "bulk",
	}

	Export = Config{
		MaxRequests: 5,
		Window:      time.Hour,
		KeyPrefix:   "export",
	}

	Upload = Config{
		MaxRequests: 20,
		Window:      time.Hour,
		KeyPrefix:   "upload",
	}

	Email = Config{
		MaxRequests: 10,
		Window:      time.Hour,
		KeyPrefix:   "email",
	}
)
