// Package daterange parses free-text, possibly partial dates into the period they may denote.
package daterange

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"microharvest/pkg/utils"

	"github.com/araddon/dateparse"
)

// ErrUnparseable is returned for text that does not denote a date.
var ErrUnparseable = errors.New("unparseable date")

// Parser turns date text into its earliest and latest possible day.
type Parser interface {
	Parse(text string) (time.Time, time.Time, error)
}

// Ensure TolerantParser implements Parser.
var _ Parser = (*TolerantParser)(nil)

var (
	yearPattern      = regexp.MustCompile(`^(\d{4})$`)
	yearMonthPattern = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})$`)
	monthYearPattern = regexp.MustCompile(`^(\d{1,2})[-/.](\d{4})$`)

	monthNameLayouts = []string{
		"January 2006",
		"Jan 2006",
		"January, 2006",
		"Jan-2006",
		"2006 January",
		"2006 Jan",
	}
)

// TolerantParser accepts years, year-months and full dates. Results are UTC midnights.
type TolerantParser struct {
	loc *time.Location
}

// NewParser creates a parser producing UTC dates.
func NewParser() *TolerantParser {
	return &TolerantParser{loc: time.UTC}
}

// Parse returns the first and last day the text may refer to.
// A full date yields the same day twice.
func (p *TolerantParser) Parse(text string) (time.Time, time.Time, error) {
	text = utils.NormalizeWhitespace(text)
	if text == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseable)
	}

	if m := yearPattern.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])

		return p.date(year, time.January, 1), p.date(year, time.December, 31), nil
	}

	if m := yearMonthPattern.FindStringSubmatch(text); m != nil {
		return p.month(m[1], m[2], text)
	}

	if m := monthYearPattern.FindStringSubmatch(text); m != nil {
		return p.month(m[2], m[1], text)
	}

	for _, layout := range monthNameLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			start := p.date(t.Year(), t.Month(), 1)

			return start, endOfMonth(start), nil
		}
	}

	if !strings.ContainsAny(text, "0123456789") {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}

	t, err := dateparse.ParseIn(text, p.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
	}

	day := p.date(t.Year(), t.Month(), t.Day())

	return day, day, nil
}

func (p *TolerantParser) month(yearText, monthText, text string) (time.Time, time.Time, error) {
	year, _ := strconv.Atoi(yearText)
	month, _ := strconv.Atoi(strings.TrimLeft(monthText, "0"))

	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month out of range in %q", ErrUnparseable, text)
	}

	start := p.date(year, time.Month(month), 1)

	return start, endOfMonth(start), nil
}

func (p *TolerantParser) date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, p.loc)
}

func endOfMonth(start time.Time) time.Time {
	return start.AddDate(0, 1, -1)
}
