// Package calendar formats dates relative to "now" using per-locale
// calendar formats (today, tomorrow, last week, ...) in the site time zone.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"sklinet.org/web/internal/observability"
)

// Phase names the point of the page lifecycle at which the calendar is set up.
type Phase string

const (
	// PhaseFetch is used while page data is resolved.
	PhaseFetch Phase = "fetch"
	// PhaseRender is used while the page is rendered.
	PhaseRender Phase = "render"
)

// DefaultTimeZone is used when no zone is configured.
const DefaultTimeZone = "Europe/Prague"

// Formats holds the calendar display patterns of one locale. Patterns may
// contain the {time}, {date} and {weekday} placeholders.
type Formats struct {
	SameDay  string
	NextDay  string
	NextWeek string
	LastDay  string
	LastWeek string
	SameElse string
	// DateLayout is the Go time layout used for {date}.
	DateLayout string
	// TimeLayout is the Go time layout used for {time}.
	TimeLayout string
	Weekdays   [7]string
}

var formats = map[string]Formats{
	"cs": {
		SameDay:    "Dnes v {time}",
		NextDay:    "Zítra v {time}",
		NextWeek:   "{weekday} v {time}",
		LastDay:    "Včera v {time}",
		LastWeek:   "Minulý {weekday} v {time}",
		SameElse:   "{date}",
		DateLayout: "2. 1. 2006",
		TimeLayout: "15:04",
		Weekdays:   [7]string{"neděle", "pondělí", "úterý", "středa", "čtvrtek", "pátek", "sobota"},
	},
	"en": {
		SameDay:    "Today at {time}",
		NextDay:    "Tomorrow at {time}",
		NextWeek:   "{weekday} at {time}",
		LastDay:    "Yesterday at {time}",
		LastWeek:   "Last {weekday} at {time}",
		SameElse:   "{date}",
		DateLayout: "01/02/2006",
		TimeLayout: "3:04 PM",
		Weekdays:   [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	},
}

// FormatsFor returns the calendar formats for locale, falling back to English.
func FormatsFor(locale string) Formats {
	if f, ok := formats[baseLanguage(locale)]; ok {
		return f
	}
	return formats["en"]
}

// Formatter renders dates for one locale and time zone.
type Formatter struct {
	locale  string
	loc     *time.Location
	formats Formats
}

// Init prepares a Formatter for the given phase. An empty tz selects
// DefaultTimeZone.
func Init(ctx context.Context, phase Phase, locale, tz string) (*Formatter, error) {
	if strings.TrimSpace(tz) == "" {
		tz = DefaultTimeZone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("calendar: load time zone %q: %w", tz, err)
	}
	f := &Formatter{locale: locale, loc: loc, formats: FormatsFor(locale)}
	observability.FromContext(ctx).Debug("calendar initialised",
		zap.String("phase", string(phase)),
		zap.String("locale", locale),
		zap.String("tz", loc.String()),
	)
	return f, nil
}

// Locale returns the formatter locale.
func (f *Formatter) Locale() string { return f.locale }

// Location returns the configured time zone.
func (f *Formatter) Location() *time.Location { return f.loc }

// Date formats t as a plain date in the configured zone.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(f.loc).Format(f.formats.DateLayout)
}

// Calendar formats t relative to now. Day distance is measured between
// local midnights, so 23:59 yesterday is still "yesterday".
func (f *Formatter) Calendar(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.In(f.loc)
	now = now.In(f.loc)
	pattern := f.pattern(dayDiff(t, now))
	r := strings.NewReplacer(
		"{time}", t.Format(f.formats.TimeLayout),
		"{date}", t.Format(f.formats.DateLayout),
		"{weekday}", f.formats.Weekdays[t.Weekday()],
	)
	return r.Replace(pattern)
}

func (f *Formatter) pattern(diff int) string {
	switch {
	case diff < -6:
		return f.formats.SameElse
	case diff < -1:
		return f.formats.LastWeek
	case diff < 0:
		return f.formats.LastDay
	case diff < 1:
		return f.formats.SameDay
	case diff < 2:
		return f.formats.NextDay
	case diff < 7:
		return f.formats.NextWeek
	default:
		return f.formats.SameElse
	}
}

func dayDiff(t, now time.Time) int {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

func baseLanguage(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return strings.ToLower(locale)
	}
	base, _ := tag.Base()
	return base.String()
}

// Weekday returns the localized weekday name.
func (f *Formatter) Weekday(d time.Weekday) string {
	return f.formats.Weekdays[d]
}

