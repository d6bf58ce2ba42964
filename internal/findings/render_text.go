package findings

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

var severityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// CountBySeverity tallies findings per severity.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// WriteText renders the full human-readable report: a summary table followed
// by one section per finding, ordered by severity.
func WriteText(w io.Writer, target string, findings []Finding) error {
	if _, err := fmt.Fprintf(w, "SECURITY ASSESSMENT REPORT\n"); err != nil {
		return err
	}
	fmt.Fprintf(w, "Target: %s\n", target)
	fmt.Fprintf(w, "Date: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total findings: %d\n\n", len(findings))

	counts := CountBySeverity(findings)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Severity", "Count"})
	for _, sev := range severityOrder {
		table.Append([]string{string(sev), fmt.Sprintf("%d", counts[sev])})
	}
	table.Render()

	n := 0
	for _, sev := range severityOrder {
		for _, f := range findings {
			if f.Severity != sev {
				continue
			}
			n++
			fmt.Fprintf(w, "\n[%d] %s: %s\n", n, f.Severity, f.Title)
			fmt.Fprintf(w, "    Kind: %s\n", f.Kind)
			fmt.Fprintf(w, "    Description: %s\n", f.Description)
			if f.Impact != "" {
				fmt.Fprintf(w, "    Impact: %s\n", f.Impact)
			}
			if len(f.Reproduction) > 0 {
				fmt.Fprintf(w, "    Reproduction:\n")
				for i, step := range f.Reproduction {
					fmt.Fprintf(w, "      %d. %s\n", i+1, step)
				}
			}
			if f.PacketHex != "" {
				fmt.Fprintf(w, "    Packet: %s\n", f.PacketHex)
			}
			if f.Mitigation != "" {
				fmt.Fprintf(w, "    Mitigation: %s\n", f.Mitigation)
			}
		}
	}
	return nil
}
