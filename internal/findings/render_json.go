package findings

import (
	"encoding/json"
	"io"
	"time"
)

// JSONReport is the machine-readable report envelope.
type JSONReport struct {
	Target     string           `json:"target"`
	Generated  time.Time        `json:"generated"`
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"by_severity"`
	Findings   []Finding        `json:"findings"`
}

// WriteJSON renders the findings as an indented JSON report.
func WriteJSON(w io.Writer, target string, findings []Finding) error {
	report := JSONReport{
		Target:     target,
		Generated:  time.Now().UTC(),
		Total:      len(findings),
		BySeverity: CountBySeverity(findings),
		Findings:   findings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
