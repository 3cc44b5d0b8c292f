package models

import "strings"

// Severity represents the alert classification tier that drives
// recipient routing.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Severities lists all valid severities in descending order.
var Severities = []Severity{SeverityCritical, SeverityWarning, SeverityInfo}

// ParseSeverity converts a string to a Severity. The second return value
// is false for unrecognized input.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL", "CRITICO":
		return SeverityCritical, true
	case "WARNING", "ALERTA":
		return SeverityWarning, true
	case "INFO":
		return SeverityInfo, true
	default:
		return "", false
	}
}

// Priority thresholds for severity classification. Zabbix trigger priority
// ranges 0-5; 4 (high) and 5 (disaster) map to CRITICAL, 2 (warning) and
// 3 (average) to WARNING.
const (
	priorityCritical = 4
	priorityWarning  = 2
)

// criticalMarkers and warningMarkers are matched case-insensitively as
// substrings of the raw alert message.
var (
	criticalMarkers = []string{"CRITICO", "CRITICAL", "DOWN"}
	warningMarkers  = []string{"ALERTA", "ALERT", "WARNING"}
)

// ClassifySeverity derives the severity of an alert from its raw message
// and the monitoring system's numeric priority. It is a total function:
// every input maps to a severity. A matching message substring wins over
// the priority; priority 0 means "not supplied".
func ClassifySeverity(message string, priority int) Severity {
	upper := strings.ToUpper(message)

	for _, m := range criticalMarkers {
		if strings.Contains(upper, m) {
			return SeverityCritical
		}
	}
	for _, m := range warningMarkers {
		if strings.Contains(upper, m) {
			return SeverityWarning
		}
	}

	switch {
	case priority >= priorityCritical:
		return SeverityCritical
	case priority >= priorityWarning:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
