package phones

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// phonePattern accepts digits-only addresses with country code, the
// format the gateway expects (e.g. 5511999990001), plus group ids
// ending in @g.us.
var phonePattern = regexp.MustCompile(`^\d{8,15}(@g\.us)?$`)

// ValidateSeverity parses and validates a severity bucket name.
func ValidateSeverity(s string) (models.Severity, error) {
	sev, ok := models.ParseSeverity(s)
	if !ok {
		return "", fmt.Errorf("invalid severity %q (expected CRITICAL, WARNING or INFO)", s)
	}
	return sev, nil
}

// ValidatePhone normalizes and validates a recipient address.
func ValidatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", fmt.Errorf("phone is required")
	}
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("invalid phone %q (expected digits with country code)", phone)
	}
	return phone, nil
}
