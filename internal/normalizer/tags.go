package normalizer

import (
	"regexp"
	"strings"

	"microharvest/internal/models"
)

var andSeparator = regexp.MustCompile(`\band\b`)

// DecomposeTags splits free-text phrases into atomic, lower-cased tags.
// field selects the phrase of each item. Order is preserved and duplicates are kept.
func DecomposeTags[T any](items []T, field func(T) string) []string {
	var tags []string

	for _, item := range items {
		for _, fragment := range splitPhrase(strings.ToLower(strings.TrimSpace(field(item)))) {
			for _, term := range splitConjunction(fragment) {
				if term = strings.TrimSpace(term); term != "" {
					tags = append(tags, term)
				}
			}
		}
	}

	return tags
}

// TopicText selects the phrase of a topic.
func TopicText(t models.Topic) string {
	return t.Topic
}

// KeywordText selects the phrase of a keyword.
func KeywordText(k models.Keyword) string {
	return k.Keyword
}

// splitPhrase splits on commas, or on slashes when there is no comma.
func splitPhrase(phrase string) []string {
	switch {
	case strings.Contains(phrase, ","):
		return strings.Split(phrase, ",")
	case strings.Contains(phrase, "/"):
		return strings.Split(phrase, "/")
	default:
		return []string{phrase}
	}
}

// splitConjunction applies the first matching rule of: whole word "and", "&", "other".
func splitConjunction(fragment string) []string {
	switch {
	case andSeparator.MatchString(fragment):
		return andSeparator.Split(fragment, -1)
	case strings.Contains(fragment, "&"):
		return strings.Split(fragment, "&")
	case strings.Contains(fragment, "other"):
		return strings.Split(fragment, "other")
	default:
		return []string{fragment}
	}
}
