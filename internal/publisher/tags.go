package publisher

import "strings"

// CleanTags applies tag mappings and removes duplicates, keeping first occurrences.
// A mapping to the empty string deletes the tag. Mapped values may list several
// tags separated by ";".
func CleanTags(tags []string, mappings map[string]string) []string {
	lookup := make(map[string]string, len(mappings))
	for from, to := range mappings {
		lookup[strings.ToLower(strings.TrimSpace(from))] = to
	}

	seen := make(map[string]bool, len(tags))
	cleaned := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))

		replacements := []string{tag}
		if to, ok := lookup[tag]; ok {
			replacements = strings.Split(to, ";")
		}

		for _, r := range replacements {
			r = strings.ToLower(strings.TrimSpace(r))
			if r == "" || seen[r] {
				continue
			}

			seen[r] = true
			cleaned = append(cleaned, r)
		}
	}

	return cleaned
}
