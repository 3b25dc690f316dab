package judge

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FranksOps/scout/internal/news"
)

// Weights are the additive scoring signals. Penalties are negative.
type Weights struct {
	Base               float64
	QualityDomain      float64
	ArticlePath        float64
	DeepPath           float64
	RootPath           float64
	ListingPath        float64
	LongSnippet        float64
	TopicInTitle       float64
	Figures            float64
	DateMention        float64
	Quote              float64
	ReportingVerb      float64
	GenericDescription float64
	SiteDescription    float64
	Clickbait          float64
	OfficialTitle      float64
	ShortSnippet       float64
	PreferredDomain    float64
	ExcludedDomain     float64
}

// DefaultWeights returns the stock weighting.
func DefaultWeights() Weights {
	return Weights{
		Base:               5,
		QualityDomain:      3,
		ArticlePath:        2,
		DeepPath:           1,
		RootPath:           -4,
		ListingPath:        -3,
		LongSnippet:        1,
		TopicInTitle:       1,
		Figures:            2,
		DateMention:        1.5,
		Quote:              1.5,
		ReportingVerb:      1,
		GenericDescription: -3,
		SiteDescription:    -4,
		Clickbait:          -2,
		OfficialTitle:      -3,
		ShortSnippet:       -3,
		PreferredDomain:    2,
		ExcludedDomain:     -4,
	}
}

const (
	minScore = 1
	maxScore = 10

	longSnippetLen     = 200
	genericSnippetLen  = 120
	minTopicKeywordLen = 3
)

// DefaultQualityDomains are publishers trusted for original reporting.
var DefaultQualityDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com",
	"washingtonpost.com", "theguardian.com", "wsj.com", "ft.com",
	"bloomberg.com", "economist.com", "npr.org", "cnbc.com", "axios.com",
	"politico.com", "aljazeera.com", "theverge.com", "arstechnica.com",
	"wired.com", "techcrunch.com", "nature.com", "science.org",
}

var (
	articlePathRe = regexp.MustCompile(`(?i)/(article|articles|story|stories)/|/(19|20)\d{2}/\d{1,2}/|/[^/]*\d{5,}[^/]*/?$`)
	listingPathRe = regexp.MustCompile(`(?i)/(category|categories|tag|tags|topic|topics|section|sections)(/|$)`)

	figuresRe = regexp.MustCompile(`(?i)\d+(\.\d+)?\s?%|[$€£¥]\s?\d|\b\d+(\.\d+)?\s?(million|billion|trillion)\b|\bpercent\b`)
	dateRe    = regexp.MustCompile(`(?i)\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|june?|july?|aug(ust)?|sept?(ember)?|oct(ober)?|nov(ember)?|dec(ember)?)\.?\s+\d{1,2}\b`)
	quoteRe   = regexp.MustCompile(`["“][^"“”]{10,}["”]`)
	verbRe    = regexp.MustCompile(`(?i)\b(said|says|announced|announces|reported|reports|confirmed|according to|told|stated|revealed)\b`)

	genericDescRe = regexp.MustCompile(`(?i)\b(welcome to|official site|your source for|latest news and|find the latest|get the latest|stay up to date|news, analysis|covering the latest)\b`)
	siteDescRe    = regexp.MustCompile(`(?i)\bis (a|an) (website|site|platform|portal|online)\b|\bis the official\b`)
	clickbaitRe   = regexp.MustCompile(`(?i)you won'?t believe|\bshocking\b|this one trick|what happened next|here'?s why|\bmust[- ]see\b|jaw-dropping`)
	officialRe    = regexp.MustCompile(`(?i)official (website|site|homepage|home page)|\bhome ?page\b`)
	listTitleRe   = regexp.MustCompile(`(?i)^\s*(the\s+)?(top|best)\s+\d+\b|^\s*\d+\s+(best|ways|things|reasons|tips)\b|\bbest of\b`)
)

// domainSet matches a host against a list of registrable domains,
// including subdomains.
type domainSet []string

func newDomainSet(domains []string) domainSet {
	out := make(domainSet, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

func (s domainSet) has(host string) bool {
	for _, d := range s {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

type parsedLink struct {
	host string
	path string
}

func parseLink(link string) parsedLink {
	u, err := url.Parse(link)
	if err != nil {
		return parsedLink{}
	}
	return parsedLink{
		host: strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."),
		path: u.EscapedPath(),
	}
}

func (p parsedLink) isRoot() bool { return p.path == "" || p.path == "/" }

func topicKeywords(topic string) (long, short []string) {
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		w = strings.Trim(w, `"'.,:;!?()`)
		switch {
		case utf8.RuneCountInString(w) >= minTopicKeywordLen:
			long = append(long, w)
		case w != "" && !shortStopwords[w]:
			short = append(short, w)
		}
	}
	return long, short
}

// shortStopwords never count as topic keywords on their own.
var shortStopwords = map[string]bool{
	"a": true, "an": true, "as": true, "at": true, "by": true, "in": true,
	"is": true, "of": true, "on": true, "or": true, "to": true,
}

// titleMentions reports whether lowerTitle contains a long keyword as a
// substring or a short one as a whole word, so "AI" does not match "said".
func titleMentions(lowerTitle, topic string) bool {
	long, short := topicKeywords(topic)
	for _, kw := range long {
		if strings.Contains(lowerTitle, kw) {
			return true
		}
	}
	if len(short) == 0 {
		return false
	}
	words := strings.FieldsFunc(lowerTitle, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		for _, kw := range short {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// Score rates item for topic on a 1..10 scale.
func (h *Heuristic) Score(item news.Item, topic string) float64 {
	w := h.weights
	link := parseLink(item.Link)
	title := item.Title
	lowerTitle := strings.ToLower(title)
	snippet := item.Snippet
	snippetLen := utf8.RuneCountInString(snippet)

	s := w.Base
	if h.quality.has(link.host) {
		s += w.QualityDomain
	}
	if h.preferred.has(link.host) {
		s += w.PreferredDomain
	}
	if h.excluded.has(link.host) {
		s += w.ExcludedDomain
	}

	if link.isRoot() {
		s += w.RootPath
	} else {
		if articlePathRe.MatchString(link.path) {
			s += w.ArticlePath
		}
		if !strings.HasSuffix(link.path, "/") {
			s += w.DeepPath
		}
		if listingPathRe.MatchString(link.path) {
			s += w.ListingPath
		}
	}

	if snippetLen > longSnippetLen {
		s += w.LongSnippet
	}
	if titleMentions(lowerTitle, topic) {
		s += w.TopicInTitle
	}

	text := title + " " + snippet
	if figuresRe.MatchString(text) {
		s += w.Figures
	}
	if dateRe.MatchString(text) {
		s += w.DateMention
	}
	if quoteRe.MatchString(snippet) {
		s += w.Quote
	}
	if verbRe.MatchString(snippet) {
		s += w.ReportingVerb
	}

	if snippetLen < genericSnippetLen && genericDescRe.MatchString(snippet) {
		s += w.GenericDescription
	}
	if siteDescRe.MatchString(snippet) {
		s += w.SiteDescription
	}
	if clickbaitRe.MatchString(title) {
		s += w.Clickbait
	}
	if officialRe.MatchString(title) {
		s += w.OfficialTitle
	}
	if snippetLen < h.minSnippet {
		s += w.ShortSnippet
	}

	return clamp(s)
}

func clamp(s float64) float64 {
	if s < minScore {
		return minScore
	}
	if s > maxScore {
		return maxScore
	}
	return s
}
