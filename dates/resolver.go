// Package dates turns spoken date and period phrases into absolute,
// half-open time ranges in a configured civil calendar.
package dates

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// weekWindow is the span used for period phrases that are not day keywords.
const weekWindow = 7 * 24 * time.Hour

// Period says how a Resolution was reached, so callers can phrase it.
type Period int

const (
	PeriodToday Period = iota
	PeriodTomorrow
	PeriodYesterday
	// PeriodDate is an absolute date or date-time phrase.
	PeriodDate
	// PeriodWindow is a 7-day window starting now, from a free period phrase.
	PeriodWindow
)

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Resolution is a resolved phrase.
type Resolution struct {
	Range  TimeRange
	Period Period
	// Phrase is the original spoken phrase for PeriodDate and PeriodWindow.
	Phrase string
	// Fallback is set when an unparseable date phrase was replaced by today.
	Fallback bool
}

// absoluteLayouts are tried in order for phrases that are not keywords.
// Layouts without an offset are read in the resolver's location.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var keywords = map[string]Period{
	"hoje":      PeriodToday,
	"today":     PeriodToday,
	"amanha":    PeriodTomorrow,
	"tomorrow":  PeriodTomorrow,
	"ontem":     PeriodYesterday,
	"yesterday": PeriodYesterday,
}

type Resolver struct {
	location *time.Location
	nowTime  func() time.Time
}

// ResolverOption defines a function type to modify the Resolver instance.
type ResolverOption func(*Resolver)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.nowTime = nowFunc
	}
}

// NewResolver creates a Resolver computing day boundaries in loc.
func NewResolver(loc *time.Location, options ...ResolverOption) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	r := &Resolver{location: loc, nowTime: time.Now}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Location returns the civil calendar used for day boundaries.
func (r *Resolver) Location() *time.Location {
	return r.location
}

// Resolve picks a range from a date phrase and a period phrase; the date
// phrase wins when both are present, and today is used when neither is.
//
// The returned Resolution is always usable. A non-nil error only reports,
// as ErrDateParseFallback, that the date phrase was not understood and
// today was used instead.
func (r *Resolver) Resolve(datePhrase, periodPhrase string) (Resolution, error) {
	now := r.nowTime().In(r.location)
	datePhrase = strings.TrimSpace(datePhrase)
	periodPhrase = strings.TrimSpace(periodPhrase)

	switch {
	case datePhrase != "":
		if p, ok := lookupKeyword(datePhrase); ok {
			return r.keywordRange(now, p), nil
		}
		if t, ok := r.parseAbsolute(datePhrase); ok {
			return Resolution{
				Range:  TimeRange{Start: t, End: t.AddDate(0, 0, 1)},
				Period: PeriodDate,
				Phrase: datePhrase,
			}, nil
		}
		res := r.keywordRange(now, PeriodToday)
		res.Fallback = true
		return res, fmt.Errorf("%w: %q", apperrors.ErrDateParseFallback, datePhrase)

	case periodPhrase != "":
		if p, ok := lookupKeyword(periodPhrase); ok && p != PeriodYesterday {
			return r.keywordRange(now, p), nil
		}
		return Resolution{
			Range:  TimeRange{Start: now, End: now.Add(weekWindow)},
			Period: PeriodWindow,
			Phrase: periodPhrase,
		}, nil

	default:
		return r.keywordRange(now, PeriodToday), nil
	}
}

// Today returns [midnight today, midnight tomorrow).
func (r *Resolver) Today() TimeRange {
	return r.keywordRange(r.nowTime().In(r.location), PeriodToday).Range
}

func (r *Resolver) keywordRange(now time.Time, p Period) Resolution {
	offset := 0
	switch p {
	case PeriodTomorrow:
		offset = 1
	case PeriodYesterday:
		offset = -1
	}
	start := startOfDay(now).AddDate(0, 0, offset)
	return Resolution{
		Range:  TimeRange{Start: start, End: start.AddDate(0, 0, 1)},
		Period: p,
	}
}

func (r *Resolver) parseAbsolute(phrase string) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, phrase, r.location); err == nil {
			return t.In(r.location), true
		}
	}
	return time.Time{}, false
}

// startOfDay uses time.Date rather than Truncate so DST days stay aligned
// to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func lookupKeyword(phrase string) (Period, bool) {
	p, ok := keywords[fold(phrase)]
	return p, ok
}

// fold case-folds and strips diacritics so "Amanhã", "AMANHA" and "amanhã"
// compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	// Casers are stateful; one per call keeps Resolve goroutine-safe.
	return cases.Fold().String(strings.TrimSpace(stripped))
}
