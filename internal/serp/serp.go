package serp

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/scout/internal/news"
)

// DefaultDateWindow is used whenever a date window is missing or
// unrecognized.
const DefaultDateWindow = "d3"

// PageSize is the largest page the search API serves.
const PageSize = 10

// Query is one page request against a search provider.
type Query struct {
	Text       string
	DateWindow string // d<N>, w<N>, m<N> or y<N>
	Start      int    // 1-based index of the first result
	Num        int    // results per page, 1..PageSize
}

// Provider abstracts a paginated web search API. Implementations must be
// safe for concurrent use.
type Provider interface {
	FetchPage(ctx context.Context, q Query) ([]news.Item, error)
}

var windowPattern = regexp.MustCompile(`^([dwmy])([1-9][0-9]{0,3})$`)

// NormalizeDateWindow returns s in canonical form, or DefaultDateWindow when
// s is not a recognized window. It never fails.
func NormalizeDateWindow(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if windowPattern.MatchString(s) {
		return s
	}
	return DefaultDateWindow
}

// WidenDateWindow doubles the span of a window, keeping its unit.
func WidenDateWindow(s string) string {
	m := windowPattern.FindStringSubmatch(NormalizeDateWindow(s))
	n, _ := strconv.Atoi(m[2])
	return m[1] + strconv.Itoa(n*2)
}
