package security

import (
	"fmt"
	"time"

	"github.com/repclub/guard/internal/models"
)

// DenialMessage maps a failed check to user-facing copy. The structured
// Reason stays in logs; members see these instead.
func DenialMessage(result models.CheckResult) string {
	if result.Allowed {
		return ""
	}

	switch result.Layer {
	case models.LayerAuthentication:
		return "Please sign in to continue."
	case models.LayerAuthorization:
		return "You don't have permission to perform this action."
	case models.LayerResourceOwnership:
		return "This record belongs to a different gym."
	default:
		return "Access denied."
	}
}

// RateLimitedMessage is the user-facing copy for a rate-limit denial
func RateLimitedMessage(retryAfterSeconds int) string {
	if retryAfterSeconds >= 120 {
		return fmt.Sprintf("Too many requests. Try again in %d minutes.", (retryAfterSeconds+59)/60)
	}
	return fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfterSeconds)
}

// LockedOutMessage is the user-facing copy for a login lockout
func LockedOutMessage(until *time.Time) string {
	if until == nil {
		return "Too many failed sign-in attempts. Try again later."
	}
	minutes := int(time.Until(*until).Minutes()) + 1
	return fmt.Sprintf("Too many failed sign-in attempts. Try again in %d minutes.", minutes)
}
