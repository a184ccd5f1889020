package log

import (
	"strings"
)

// SanitizeField checks if the key names a sensitive field and masks the value.
// Covers credentials plus guest PII (phone numbers and emails) since message
// jobs and PMS profiles carry both.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)

	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"token", "access_token",
		"secret", "auth", "authorization",
		"credential", "private_key", "privatekey",
	}

	isSensitive := false
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			isSensitive = true
			break
		}
	}

	if strings.Contains(lowerKey, "email") || strings.Contains(lowerKey, "mail") {
		return sanitizeEmail(value)
	}

	if strings.Contains(lowerKey, "phone") || strings.Contains(lowerKey, "recipient") {
		return sanitizePhone(value)
	}

	if isSensitive {
		return sanitizeToken(value)
	}

	return value
}

// sanitizeToken masks token/password values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizePhone masks a phone number keeping any leading "+" country prefix
// and the last 2 digits, e.g. "+14155550123" -> "+1********23".
func sanitizePhone(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}

	prefix := ""
	rest := value
	if strings.HasPrefix(value, "+") && len(value) > 5 {
		prefix = value[:2]
		rest = value[2:]
	}

	if len(rest) <= 2 {
		return prefix + strings.Repeat("*", len(rest))
	}
	return prefix + strings.Repeat("*", len(rest)-2) + rest[len(rest)-2:]
}

// sanitizeEmail masks email showing first 3 characters + @domain
func sanitizeEmail(value string) string {
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		// Invalid email format, mask everything
		return strings.Repeat("*", len(value))
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) <= 3 {
		if len(localPart) == 0 {
			return "@" + domain
		}
		return string(localPart[0]) + strings.Repeat("*", len(localPart)-1) + "@" + domain
	}

	return localPart[:3] + "***@" + domain
}
