package terminal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/reconcile"
)

// summarizeAnomalies produces a one-liner like
// "3 anomalies: 2 unresolved_speaker, 1 malformed_page_marker".
func summarizeAnomalies(anomalies []core.Anomaly) string {
	if len(anomalies) == 0 {
		return "no anomalies"
	}
	counts := make(map[core.AnomalyKind]int)
	for _, a := range anomalies {
		counts[a.Kind]++
	}
	kinds := make([]core.AnomalyKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	// Most frequent first, then by name.
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[k], k)
	}
	noun := "anomalies"
	if len(anomalies) == 1 {
		noun = "anomaly"
	}
	return fmt.Sprintf("%d %s: %s", len(anomalies), noun, strings.Join(parts, ", "))
}

// statusStyle picks the color of a status cell.
func statusStyle(s core.Status) lipgloss.Style {
	switch s {
	case core.StatusOK:
		return styleOK
	case core.StatusError:
		return styleError
	default:
		return styleWarn
	}
}

// classStyle picks the color of a comparison class cell.
func classStyle(c reconcile.Class) lipgloss.Style {
	if c == reconcile.ClassMatch {
		return styleOK
	}
	return styleWarn
}

// signed formats a delta with an explicit sign.
func signed(s string) string {
	if strings.HasPrefix(s, "-") || strings.Trim(s, "0.") == "" {
		return s
	}
	return "+" + s
}
