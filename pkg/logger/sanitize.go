package logger

import "strings"

// SanitizedEmail masks an email address for logging (e.g., "u***@e***.com").
// Login identifiers pass through the audit trail; only the masked form may
// be stored or logged.
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	// Mask username: keep first char, mask rest
	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// Mask domain: keep TLD, mask the rest
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

// SanitizedIdentifier masks a login identifier for the audit trail. Email
// identifiers are masked like SanitizedEmail; opaque identifiers (IP+email
// composites, account IDs) keep a short prefix.
func SanitizedIdentifier(identifier string) string {
	if strings.Count(identifier, "@") == 1 {
		return SanitizedEmail(identifier)
	}

	if len(identifier) > 4 {
		return identifier[:4] + strings.Repeat("*", len(identifier)-4)
	}
	return strings.Repeat("*", len(identifier))
}
