package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"text/template"
	"time"

	"github.com/FranksOps/scout/internal/news"
)

// TopicLine is the per-topic row of a Summary.
type TopicLine struct {
	Topic    string
	Status   news.Status
	Items    int
	Fallback string
	Error    string
	Duration time.Duration
}

// Summary contains aggregated figures about a batch of topic outcomes.
type Summary struct {
	Topics        int
	WithNews      int
	NoNews        int
	Failed        int
	Fallbacks     int
	TotalItems    int
	ItemsBySource map[string]int
	Errors        map[string]string // by topic
	TotalDuration time.Duration
	Lines         []TopicLine
}

// GenerateSummary aggregates outcomes, keeping their order in Lines.
func GenerateSummary(outcomes []news.TopicOutcome) Summary {
	s := Summary{
		ItemsBySource: make(map[string]int),
		Errors:        make(map[string]string),
	}

	for _, o := range outcomes {
		s.Topics++
		status := o.Status()
		switch status {
		case news.StatusOK:
			s.WithNews++
		case news.StatusNoNews:
			s.NoNews++
		case news.StatusFailed:
			s.Failed++
			s.Errors[o.Topic] = o.Error
		}
		if o.FallbackReason != "" {
			s.Fallbacks++
		}
		s.TotalItems += len(o.Items)
		for _, it := range o.Items {
			src := it.Source
			if src == "" {
				src = "unknown"
			}
			s.ItemsBySource[src]++
		}
		s.TotalDuration += o.Duration
		s.Lines = append(s.Lines, TopicLine{
			Topic:    o.Topic,
			Status:   status,
			Items:    len(o.Items),
			Fallback: o.FallbackReason,
			Error:    o.Error,
			Duration: o.Duration.Round(time.Millisecond),
		})
	}

	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Scout Summary
-------------
Topics:     {{.Topics}} ({{.WithNews}} with news, {{.NoNews}} no news, {{.Failed}} failed)
Items:      {{.TotalItems}}
Fallbacks:  {{.Fallbacks}}
Time spent: {{.TotalDuration}}

Topics:
{{- range .Lines}}
  {{printf "%-24s" .Topic}} {{printf "%-8s" .Status}} {{.Items}} items  {{.Duration}}
  {{- if .Fallback}}  [fallback: {{.Fallback}}]{{end}}
  {{- if .Error}}  [error: {{.Error}}]{{end}}
{{- else}}
  None
{{- end}}

Items by source:
{{- range $src, $count := .ItemsBySource}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Scout Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
  .failed { color: red; }
</style>
</head>
<body>
  <h1>Scout Report</h1>

  <div class="stat-card">
    <div>Topics</div>
    <div class="stat-val">{{.Topics}}</div>
  </div>
  <div class="stat-card">
    <div>With News</div>
    <div class="stat-val">{{.WithNews}}</div>
  </div>
  <div class="stat-card">
    <div>Failed</div>
    <div class="stat-val" style="color: {{if gt .Failed 0}}red{{else}}green{{end}};">{{.Failed}}</div>
  </div>
  <div class="stat-card">
    <div>Items</div>
    <div class="stat-val">{{.TotalItems}}</div>
  </div>

  <h3>Topics</h3>
  <table>
    <tr><th>Topic</th><th>Status</th><th>Items</th><th>Fallback</th><th>Duration</th></tr>
    {{- range .Lines}}
    <tr{{if .Error}} class="failed" title="{{.Error}}"{{end}}><td>{{.Topic}}</td><td>{{.Status}}</td><td>{{.Items}}</td><td>{{.Fallback}}</td><td>{{.Duration}}</td></tr>
    {{- else}}
    <tr><td colspan="5">None</td></tr>
    {{- end}}
  </table>

  <h3>Items By Source</h3>
  <table>
    <tr><th>Source</th><th>Count</th></tr>
    {{- range $src, $count := .ItemsBySource}}
    <tr><td>{{$src}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteDigest lists the selected items of every topic, in the form handed
// to the summarizer.
func WriteDigest(w io.Writer, outcomes []news.TopicOutcome) error {
	const digestTmpl = `{{- range $i, $o := .}}{{if $i}}
{{end}}## {{$o.Topic}}
{{- if $o.Error}}
(failed: {{$o.Error}})
{{- else}}
{{- range $n, $it := $o.Items}}
{{inc $n}}. {{$it.Title}}{{if $it.Source}} ({{$it.Source}}{{if $it.PublishedTime}}, {{$it.PublishedTime}}{{end}}){{end}}
   {{$it.Link}}
{{- if $it.Snippet}}
   {{$it.Snippet}}
{{- end}}
{{- else}}
(no news found)
{{- end}}
{{- end}}
{{end}}`

	t, err := template.New("digest").Funcs(template.FuncMap{
		"inc": func(n int) int { return n + 1 },
	}).Parse(digestTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, outcomes); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
