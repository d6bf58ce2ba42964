package phase

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DOT renders the observed transition log as a Graphviz digraph: nodes are
// phases, edges are observed (from, to, event) triples, invalid edges drawn
// dashed and red. A read-only projection; rendering belongs to dot(1).
func (t *Tracker) DOT() string {
	type edge struct {
		from, to, event string
	}
	seen := make(map[edge]bool)
	invalid := make(map[edge]bool)
	var order []edge
	for _, tr := range t.log {
		e := edge{tr.From.String(), tr.To.String(), tr.Event}
		if !seen[e] {
			seen[e] = true
			order = append(order, e)
		}
		if !tr.Valid {
			invalid[e] = true
		}
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.to != b.to {
			return a.to < b.to
		}
		return a.event < b.event
	})

	var b strings.Builder
	b.WriteString("digraph StateMachine {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle];\n\n")
	for _, e := range order {
		style, color := "solid", "black"
		if invalid[e] {
			style, color = "dashed", "red"
		}
		fmt.Fprintf(&b, "  %s -> %s [label=%q, style=%s, color=%s];\n",
			e.from, e.to, e.event, style, color)
	}
	b.WriteString("}\n")
	return b.String()
}

// Report bundles the log, statistics, and anomalies for machine-readable
// export.
type Report struct {
	Statistics  Stats        `json:"statistics"`
	Transitions []Transition `json:"transitions"`
	Invalid     []Transition `json:"invalid_transitions"`
	Anomalies   []Anomaly    `json:"anomalies"`
}

// Report builds the export view of the tracker.
func (t *Tracker) Report() Report {
	return Report{
		Statistics:  t.Stats(),
		Transitions: t.Log(),
		Invalid:     t.Invalid(),
		Anomalies:   t.DetectAnomalies(),
	}
}

// WriteJSON writes the tracker report as indented JSON.
func (t *Tracker) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Report())
}
