// Package country resolves free-text nation names to ISO 3166-1 alpha-3 codes.
package country

import (
	"regexp"
	"sort"
	"strings"

	"microharvest/pkg/utils"

	"github.com/biter777/countries"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Resolver maps nation names to ISO3 codes and back.
type Resolver interface {
	// ISO3FromName resolves a free-text name, tolerating spelling variants.
	ISO3FromName(name string) (string, bool)
	// NameFromISO3 returns the canonical country name of a code.
	NameFromISO3(code string) (string, bool)
}

// Ensure TableResolver implements Resolver.
var _ Resolver = (*TableResolver)(nil)

// Country is one row of the lookup table.
type Country struct {
	ISO3 string
	Name string
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// connectives do not count towards a name match.
var connectives = map[string]bool{"of": true, "the": true, "and": true}

// TableResolver resolves names against a country table plus configured aliases.
type TableResolver struct {
	aliases  map[string]string
	names    map[string]string
	byName   map[string]string
	byISO3   map[string]string
	keys     []string
	keyCodes []string
}

// NewResolver creates a resolver over the ISO 3166 table.
// aliases maps extra names to ISO3 codes; names overrides canonical names by ISO3.
func NewResolver(aliases, names map[string]string) *TableResolver {
	return NewResolverFromTable(ISOTable(), aliases, names)
}

// ISOTable returns every assigned ISO 3166-1 country with its English name.
func ISOTable() []Country {
	all := countries.All()
	table := make([]Country, 0, len(all))

	for _, c := range all {
		if !c.IsValid() || c.Alpha3() == "" {
			continue
		}

		table = append(table, Country{ISO3: c.Alpha3(), Name: c.String()})
	}

	return table
}

// NewResolverFromTable creates a resolver over an explicit table.
func NewResolverFromTable(table []Country, aliases, names map[string]string) *TableResolver {
	r := &TableResolver{
		aliases: make(map[string]string, len(aliases)),
		names:   make(map[string]string, len(names)),
		byName:  make(map[string]string, len(table)),
		byISO3:  make(map[string]string, len(table)),
	}

	for _, c := range table {
		code := strings.ToUpper(c.ISO3)
		key := normalize(c.Name)

		if _, seen := r.byISO3[code]; !seen {
			r.byISO3[code] = c.Name
		}

		if key == "" {
			continue
		}

		if _, seen := r.byName[key]; !seen {
			r.byName[key] = code
			r.keys = append(r.keys, key)
			r.keyCodes = append(r.keyCodes, code)
		}
	}

	for name, code := range aliases {
		r.aliases[normalize(name)] = strings.ToUpper(strings.TrimSpace(code))
	}

	for code, name := range names {
		r.names[strings.ToUpper(strings.TrimSpace(code))] = name
	}

	return r
}

// ISO3FromName tries, in order: aliases, exact names, bare codes, the library's
// name variants, the table name sharing the most words with the input, and the
// closest fuzzy match.
func (r *TableResolver) ISO3FromName(name string) (string, bool) {
	key := normalize(name)
	if key == "" {
		return "", false
	}

	if code, ok := r.aliases[key]; ok {
		return code, true
	}

	if code, ok := r.byName[key]; ok {
		return code, true
	}

	if len(key) == 3 {
		if _, ok := r.byISO3[strings.ToUpper(key)]; ok {
			return strings.ToUpper(key), true
		}
	}

	if code, ok := r.variant(name, key); ok {
		return code, true
	}

	if code, ok := r.contained(key); ok {
		return code, true
	}

	return r.closest(key)
}

// NameFromISO3 returns the configured or table name of code.
func (r *TableResolver) NameFromISO3(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if name, ok := r.names[code]; ok {
		return name, true
	}

	name, ok := r.byISO3[code]

	return name, ok
}

// IsValid reports whether code is a known ISO3 code.
func (r *TableResolver) IsValid(code string) bool {
	_, ok := r.NameFromISO3(code)

	return ok
}

// variant looks the name up in the ISO library's list of spellings and former names.
// Short keys are skipped since the library also accepts two-letter codes.
func (r *TableResolver) variant(name, key string) (string, bool) {
	if len(strings.ReplaceAll(key, " ", "")) <= 3 {
		return "", false
	}

	for _, candidate := range []string{strings.TrimSpace(name), key} {
		c := countries.ByName(candidate)
		if c == countries.Unknown || !c.IsValid() {
			continue
		}

		if _, ok := r.byISO3[c.Alpha3()]; ok {
			return c.Alpha3(), true
		}
	}

	return "", false
}

// contained picks the table name whose significant words all occur in the input,
// preferring the one matching the most words, then the longest.
func (r *TableResolver) contained(key string) (string, bool) {
	words := make(map[string]bool)
	for _, w := range strings.Fields(key) {
		words[w] = true
	}

	best, bestScore := -1, 0

	for i, k := range r.keys {
		score, ok := matchWords(k, words)
		if !ok {
			continue
		}

		if score > bestScore || (score == bestScore && len(k) > len(r.keys[best])) {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return "", false
	}

	return r.keyCodes[best], true
}

// matchWords counts the significant words of name and reports whether all occur in words.
func matchWords(name string, words map[string]bool) (int, bool) {
	score := 0

	for _, w := range strings.Fields(name) {
		if connectives[w] {
			continue
		}

		if !words[w] {
			return 0, false
		}

		score++
	}

	return score, score > 0
}

func (r *TableResolver) closest(key string) (string, bool) {
	ranks := fuzzy.RankFindNormalizedFold(key, r.keys)
	if len(ranks) == 0 {
		return "", false
	}

	sort.Sort(ranks)

	if ranks[0].Distance > maxDistance(key) {
		return "", false
	}

	return r.keyCodes[ranks[0].OriginalIndex], true
}

// maxDistance bounds how many characters a fuzzy candidate may add to the input.
func maxDistance(key string) int {
	return max(2, len(key)/3)
}

func normalize(name string) string {
	folded := strings.ToLower(utils.FoldAccents(name))

	return utils.NormalizeWhitespace(nonAlnum.ReplaceAllString(folded, " "))
}
