package pipeline

import (
	"fmt"
	"strings"

	"github.com/good-yellow-bee/alertbridge/internal/models"
)

// ComposeMessage renders the outbound notification text from the alert
// fields and the optional AI analysis. Deterministic given its inputs; the
// analysis section is present only when analysis is non-empty.
func ComposeMessage(alert models.Alert, analysis string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\U0001F6A8 *Alerta Zabbix - %s*\n\n", alert.Severity)
	fmt.Fprintf(&b, "*Host:* %s\n", alert.Host)
	fmt.Fprintf(&b, "*Mensagem:* %s", alert.Message)

	if analysis != "" {
		fmt.Fprintf(&b, "\n\n*Análise da IA:*\n%s", analysis)
	}

	return b.String()
}
