package alerts

import (
	"fmt"
	"strings"
)

const maxMessageLength = 4096

// ValidateSubmission checks required fields on an incoming alert.
func ValidateSubmission(req CreateRequest) error {
	if strings.TrimSpace(req.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if strings.TrimSpace(req.TriggerID) == "" {
		return fmt.Errorf("triggerId is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("mensagem is required")
	}
	if len(req.Message) > maxMessageLength {
		return fmt.Errorf("mensagem exceeds %d characters", maxMessageLength)
	}
	return nil
}
