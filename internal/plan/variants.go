package plan

import (
	"fmt"
	"strings"
)

type category struct {
	name     string
	triggers []string
	expand   []string
}

// Checked in order; the first category with a matching trigger wins.
var categories = []category{
	{"technology", []string{"tech", "ai", "software", "computing", "gadget", "chip", "semiconductor", "cyber", "startup"}, []string{"launch", "release", "update"}},
	{"business", []string{"business", "market", "economy", "finance", "stock", "company", "earnings", "trade"}, []string{"earnings", "acquisition", "revenue"}},
	{"science", []string{"science", "research", "space", "physics", "biology", "astronomy", "chemistry"}, []string{"study", "discovery", "research"}},
	{"health", []string{"health", "medical", "medicine", "disease", "vaccine", "pharma", "hospital"}, []string{"study", "treatment", "outbreak"}},
	{"politics", []string{"politic", "election", "government", "congress", "parliament", "senate", "policy"}, []string{"vote", "bill", "minister"}},
	{"sports", []string{"sport", "football", "soccer", "basketball", "tennis", "olympic", "league", "nba", "nfl"}, []string{"match", "score", "transfer"}},
	{"entertainment", []string{"entertainment", "movie", "film", "music", "celebrity", "tv", "gaming", "streaming"}, []string{"premiere", "album", "box office"}},
	{"climate", []string{"climate", "environment", "weather", "energy", "emission", "renewable"}, []string{"emissions", "policy", "report"}},
	{"world", []string{"world", "international", "global", "war", "conflict", "diplomacy"}, []string{"summit", "talks", "sanctions"}},
}

// categoryFor returns the first category whose trigger occurs as a word
// prefix in the lowercased topic.
func categoryFor(topic string) (category, bool) {
	words := strings.FieldsFunc(strings.ToLower(topic), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, c := range categories {
		for _, trig := range c.triggers {
			for _, w := range words {
				if strings.HasPrefix(w, trig) && (len(trig) > 3 || w == trig) {
					return c, true
				}
			}
		}
	}
	return category{}, false
}

func standardQuery(topic string) string {
	c, ok := categoryFor(topic)
	if !ok {
		return topic + " latest news"
	}
	kws := c.expand
	if len(kws) > 3 {
		kws = kws[:3]
	}
	return fmt.Sprintf("%s news (%s)", topic, strings.Join(kws, " OR "))
}

// Deterministic returns the five fixed variants for topic. They are pure
// functions of the topic.
func Deterministic(topic string) Plan {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	return Plan{
		{Label: LabelStandard, Query: standardQuery(topic)},
		{Label: LabelSpecific, Query: `"` + topic + `" news article`},
		{Label: LabelBroad, Query: topic + " developments OR announcement OR report"},
		{Label: LabelRecent, Query: topic + " news this week"},
		{Label: LabelFallback, Query: topic + " news"},
	}
}
