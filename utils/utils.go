package utils

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v2"
)

// Slugify turns a display name into a URL-safe slug
// ("Design Team" -> "design-team").
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// AuthRateLimitKey creates a unique key for rate limiting auth attempts
func AuthRateLimitKey(ip, path string) string {
	return fmt.Sprintf("rl:auth:%s:%s", ip, path)
}

// SuccessResponse creates a standardized success response
func SuccessResponse(data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"data":    data,
	}
}
