package serp

import (
	"strings"

	"github.com/FranksOps/scout/internal/news"
)

type response struct {
	Items []resultItem `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type resultItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	HTMLSnippet string `json:"htmlSnippet"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		Metatags []map[string]any `json:"metatags"`
	} `json:"pagemap"`
}

var (
	publishedKeys = []string{
		"article:published_time",
		"og:article:published_time",
		"publishedtime",
		"publishedTime",
		"datePublished",
	}
	siteNameKeys = []string{"og:site_name", "og_site_name"}
)

func (r resultItem) toItem() (news.Item, bool) {
	link := strings.TrimSpace(r.Link)
	if link == "" {
		return news.Item{}, false
	}

	snippet := r.Snippet
	if strings.TrimSpace(snippet) == "" {
		snippet = r.HTMLSnippet
	}

	source := r.metatag(siteNameKeys)
	if source == "" {
		source = strings.TrimSpace(r.DisplayLink)
	}

	return news.Item{
		Title:         news.CleanContent(r.Title),
		Link:          link,
		Snippet:       news.CleanContent(snippet),
		PublishedTime: r.metatag(publishedKeys),
		Source:        source,
	}, true
}

// metatag returns the first non-empty string value among keys, searching
// every metatag block in order.
func (r resultItem) metatag(keys []string) string {
	for _, tags := range r.Pagemap.Metatags {
		for _, k := range keys {
			if s, ok := tags[k].(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
