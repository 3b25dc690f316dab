package news

import "time"

// Item is one candidate article built from a search hit. Link is the
// identity of an item; a candidate list never holds two items with the same
// Link once it has passed through the retriever.
type Item struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet"`
	PublishedTime string `json:"published_time,omitempty"` // as reported by the source, unverified
	Source        string `json:"source,omitempty"`
}

// Status classifies a TopicOutcome for reporting.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoNews Status = "no_news"
	StatusFailed Status = "failed"
)

// TopicOutcome is the per-topic result handed to the caller. Error is only
// set when retrieval or judgment failed hard; an outcome without items and
// without Error means no news was found.
type TopicOutcome struct {
	Topic          string        `json:"topic"`
	Items          []Item        `json:"items"`
	Error          string        `json:"error,omitempty"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Duration       time.Duration `json:"duration"`
}

// Status reports whether the topic failed, found nothing, or produced items.
func (o TopicOutcome) Status() Status {
	switch {
	case o.Error != "":
		return StatusFailed
	case len(o.Items) == 0:
		return StatusNoNews
	default:
		return StatusOK
	}
}
