package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"ecovision-etl/internal/domain/entity"
)

const failureAlertText = `:rotating_light: Biodiversity ETL failed
Execution: {{ .ExecutionID }} ({{ .Trigger }})
Attempts: {{ .Attempts }}
Started: {{ .StartTime.Format "2006-01-02 15:04:05 MST" }}
{{- if .EndTime }}
Finished: {{ .EndTime.Format "2006-01-02 15:04:05 MST" }}
{{- end }}
{{- if .Error }}
Error: {{ .Error }}
{{- end }}
{{- with .Result }}
Last run: status={{ .Status }} extracted={{ .RecordsExtracted }} loaded={{ .RecordsLoaded }} rejected={{ .RecordsRejected }}
{{- range (firstN .Errors 5) }}
 - {{ . }}
{{- end }}
{{- end }}
`

var failureAlert = template.Must(template.New("failure_alert").Funcs(template.FuncMap{
	"firstN": firstN,
}).Parse(failureAlertText))

// FailureAlertSubject is the one-line title used by notifiers that need one
func FailureAlertSubject(record *entity.ExecutionRecord) string {
	return fmt.Sprintf("Biodiversity ETL execution %s failed after %d attempts", record.ExecutionID, record.Attempts)
}

// RenderFailureAlert renders the plain-text alert for an exhausted execution
func RenderFailureAlert(record *entity.ExecutionRecord) (string, error) {
	var buf bytes.Buffer
	if err := failureAlert.Execute(&buf, record); err != nil {
		return "", fmt.Errorf("failed to render failure alert: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
