package html

import (
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/pkwap/pkscreen/core"
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatTime":     formatTime,
		"formatDuration": formatDuration,
		"formatNumber":   formatNumber,
		"formatPct":      formatPct,
		"statusClass":    statusClass,
		"speakerClass":   speakerClass,
	}
}

func formatPct(v float64, precision int) string {
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}

func statusClass(s core.Status) string {
	switch s {
	case core.StatusOK:
		return "text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
	case core.StatusError:
		return "text-red-700 dark:text-red-400 bg-red-50 dark:bg-red-950"
	default:
		return "text-amber-700 dark:text-amber-400 bg-amber-50 dark:bg-amber-950"
	}
}

func speakerClass(sp core.Speaker) string {
	switch sp {
	case core.SpeakerStudent:
		return "text-blue-700 dark:text-blue-400 bg-blue-50 dark:bg-blue-950"
	case core.SpeakerAI:
		return "text-emerald-700 dark:text-emerald-400 bg-emerald-50 dark:bg-emerald-950"
	default:
		return "text-slate-600 dark:text-slate-400 bg-slate-100 dark:bg-slate-800"
	}
}
