package main

import (
	"fmt"
	"io"

	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/report"
)

var formats = []string{"text", "json", "html", "digest"}

func writeOutcomes(w io.Writer, format string, outcomes []news.TopicOutcome) error {
	switch format {
	case "", "text":
		return report.WriteText(w, report.GenerateSummary(outcomes))
	case "json":
		return report.WriteJSON(w, report.GenerateSummary(outcomes))
	case "html":
		return report.WriteHTML(w, report.GenerateSummary(outcomes))
	case "digest":
		return report.WriteDigest(w, outcomes)
	default:
		return fmt.Errorf("unknown format %q (want one of %v)", format, formats)
	}
}
