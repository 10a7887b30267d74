package normalizer

import (
	"regexp"
	"strings"

	"microharvest/pkg/utils"
)

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns an upstream identifier into a URL-safe dataset name:
// accents folded, lower case, every non-alphanumeric run collapsed to one hyphen.
func Slugify(s string) string {
	lower := strings.ToLower(utils.FoldAccents(s))

	return strings.Trim(slugSeparators.ReplaceAllString(lower, "-"), "-")
}
