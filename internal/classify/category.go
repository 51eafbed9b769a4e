package classify

import (
	"regexp"
	"strings"

	"NewsAggregator/internal/domain"
)

// MaxCategories bounds how many categories an article carries.
const MaxCategories = 3

// CategoryRule lists the keywords that pull an article into a category.
type CategoryRule struct {
	Name     string
	Keywords []string
}

// DefaultCategoryRules is the built-in topic map; order decides precedence when capping.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Name: "Technology", Keywords: []string{"tech", "technology", "software", "computer", "internet", "digital", "ai", "artificial intelligence", "gadget", "startup"}},
		{Name: "Politics", Keywords: []string{"election", "government", "congress", "senate", "political", "politics", "policy", "president", "vote"}},
		{Name: "Business", Keywords: []string{"business", "economy", "market", "finance", "stock", "company", "invest", "trade"}},
		{Name: "Sports", Keywords: []string{"sport", "sports", "football", "basketball", "soccer", "game", "player", "team", "match"}},
		{Name: "Health", Keywords: []string{"health", "medical", "hospital", "doctor", "medicine", "disease", "wellness", "covid"}},
		{Name: "Science", Keywords: []string{"science", "research", "study", "discovery", "scientist", "space", "biology", "physics"}},
		{Name: "Entertainment", Keywords: []string{"entertainment", "movie", "film", "celebrity", "music", "tv", "hollywood", "art"}},
		{Name: "World News", Keywords: []string{"world", "international", "global", "country", "geopolitics", "conflict", "diplomacy"}},
		{Name: "Local News", Keywords: []string{"local", "city", "community", "town", "neighborhood"}},
	}
}

type compiledRule struct {
	name    string
	pattern *regexp.Regexp
}

// KeywordCategorizer assigns categories by keyword hits. It is safe for concurrent use.
type KeywordCategorizer struct {
	rules []compiledRule
}

// NewKeywordCategorizer compiles rules once; nil rules fall back to DefaultCategoryRules.
func NewKeywordCategorizer(rules []CategoryRule) *KeywordCategorizer {
	if len(rules) == 0 {
		rules = DefaultCategoryRules()
	}

	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Name == "" || len(rule.Keywords) == 0 {
			continue
		}
		quoted := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(kw))
		}
		if len(quoted) == 0 {
			continue
		}
		compiled = append(compiled, compiledRule{
			name:    rule.Name,
			pattern: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`),
		})
	}

	return &KeywordCategorizer{rules: compiled}
}

// Categorize returns up to MaxCategories names, section matches first, or the default category.
func (c *KeywordCategorizer) Categorize(title, description, section string) []string {
	var selected []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			selected = append(selected, name)
		}
	}

	if section = strings.ToLower(strings.TrimSpace(section)); section != "" {
		for _, rule := range c.rules {
			if sectionMatches(section, rule) {
				add(rule.name)
			}
		}
	}

	text := strings.ToLower(title + " " + description)
	for _, rule := range c.rules {
		if rule.pattern.MatchString(text) {
			add(rule.name)
		}
	}

	if len(selected) == 0 {
		return []string{domain.DefaultCategory}
	}
	if len(selected) > MaxCategories {
		selected = selected[:MaxCategories]
	}
	return selected
}

// sectionMatches compares a source section against a rule on word boundaries, so "ai" does not
// match "sustainable".
func sectionMatches(section string, rule compiledRule) bool {
	return strings.EqualFold(section, rule.name) || rule.pattern.MatchString(section)
}
