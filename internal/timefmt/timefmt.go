// Package timefmt turns chat timestamps into the date and time labels shown
// in a conversation. Date labels double as grouping keys, so two instants on
// the same calendar day in the configured zone always get the same label.
package timefmt

import (
	"errors"
	"strings"
	"time"

	perrors "github.com/zhubert/pischat/internal/errors"
)

// ErrInvalidInstant is returned for timestamps that do not name a real
// instant. The pipeline skips such records.
var ErrInvalidInstant = errors.New("invalid instant")

// Locale is a fixed set of layouts plus month and weekday names. An empty
// name keeps Go's English one. Weekdays start on Sunday, as time.Weekday does.
type Locale struct {
	Name          string
	DateLayout    string
	TimeLayout    string
	Months        [12]string
	ShortMonths   [12]string
	Weekdays      [7]string
	ShortWeekdays [7]string
}

var (
	// LocaleEnglish renders "Jan 1, 2024" and "10:00".
	LocaleEnglish = Locale{
		Name:       "en",
		DateLayout: "Jan 2, 2006",
		TimeLayout: "15:04",
	}

	// LocaleIndonesian matches the id-ID formatting of the mobile client:
	// "1 Januari 2024" and "10.00.00".
	LocaleIndonesian = Locale{
		Name:       "id",
		DateLayout: "2 January 2006",
		TimeLayout: "15.04.05",
		Months: [12]string{
			"Januari", "Februari", "Maret", "April", "Mei", "Juni",
			"Juli", "Agustus", "September", "Oktober", "November", "Desember",
		},
		ShortMonths: [12]string{
			"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
			"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
		},
		Weekdays: [7]string{
			"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu",
		},
		ShortWeekdays: [7]string{
			"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab",
		},
	}
)

// LocaleByName looks up a built-in locale. Unknown names return false.
func LocaleByName(name string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "en", "en-us", "english":
		return LocaleEnglish, true
	case "id", "id-id", "indonesian":
		return LocaleIndonesian, true
	}
	return Locale{}, false
}

// Formatter formats instants in one zone and locale. The zero value is not
// usable; call New.
type Formatter struct {
	loc    *time.Location
	locale Locale
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithLocale selects month and weekday names and default layouts.
func WithLocale(l Locale) Option {
	return func(f *Formatter) { f.locale = l }
}

// WithDateLayout overrides the date layout (Go reference-time syntax).
func WithDateLayout(layout string) Option {
	return func(f *Formatter) { f.locale.DateLayout = layout }
}

// WithTimeLayout overrides the time layout.
func WithTimeLayout(layout string) Option {
	return func(f *Formatter) { f.locale.TimeLayout = layout }
}

// New returns a Formatter for loc. A nil loc means UTC.
func New(loc *time.Location, opts ...Option) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	f := &Formatter{loc: loc, locale: LocaleEnglish}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Location returns the zone labels are computed in.
func (f *Formatter) Location() *time.Location {
	return f.loc
}

// FormatDate returns the calendar-day label for t.
func (f *Formatter) FormatDate(t time.Time) (string, error) {
	if t.IsZero() {
		return "", perrors.E(perrors.Op("timefmt.FormatDate"), perrors.KindInvalid, ErrInvalidInstant)
	}
	return f.render(t.In(f.loc), f.locale.DateLayout), nil
}

// FormatTime returns the time-of-day label for t.
func (f *Formatter) FormatTime(t time.Time) (string, error) {
	if t.IsZero() {
		return "", perrors.E(perrors.Op("timefmt.FormatTime"), perrors.KindInvalid, ErrInvalidInstant)
	}
	return f.render(t.In(f.loc), f.locale.TimeLayout), nil
}

// nameElems are the layout elements spelled out in words, longest first so
// "January" is not read as "Jan" followed by "uary".
var nameElems = []string{"January", "Jan", "Monday", "Mon"}

// render formats t with layout. Name elements are cut out of the layout and
// spelled from the locale; the pieces between them go through time.Format.
func (f *Formatter) render(t time.Time, layout string) string {
	var b strings.Builder
	for layout != "" {
		i, elem := nextNameElem(layout)
		b.WriteString(t.Format(layout[:i]))
		if elem == "" {
			break
		}
		b.WriteString(f.name(t, elem))
		layout = layout[i+len(elem):]
	}
	return b.String()
}

// nextNameElem finds the first name element in layout. It returns
// len(layout) and "" when there is none.
func nextNameElem(layout string) (int, string) {
	for i := range layout {
		for _, elem := range nameElems {
			if strings.HasPrefix(layout[i:], elem) {
				return i, elem
			}
		}
	}
	return len(layout), ""
}

func (f *Formatter) name(t time.Time, elem string) string {
	var local string
	switch elem {
	case "January":
		local = f.locale.Months[t.Month()-1]
	case "Jan":
		local = f.locale.ShortMonths[t.Month()-1]
	case "Monday":
		local = f.locale.Weekdays[t.Weekday()]
	case "Mon":
		local = f.locale.ShortWeekdays[t.Weekday()]
	}
	if local == "" {
		return t.Format(elem)
	}
	return local
}

// acceptedLayouts are tried in order by Parse. RFC 3339 also covers the
// fractional-second form produced by JSON-encoded JavaScript dates.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Parse converts a raw wire timestamp into an instant. Timestamps without a
// zone are read in the formatter's location.
func (f *Formatter) Parse(raw string) (time.Time, error) {
	const op = perrors.Op("timefmt.Parse")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, perrors.E(op, perrors.KindInvalid, "empty timestamp", ErrInvalidInstant)
	}
	for _, layout := range acceptedLayouts {
		t, err := time.ParseInLocation(layout, raw, f.loc)
		if err == nil {
			if t.IsZero() {
				break
			}
			return t, nil
		}
	}
	return time.Time{}, perrors.E(op, perrors.KindInvalid, "unparseable timestamp "+quote(raw), ErrInvalidInstant)
}

func quote(s string) string {
	if len(s) > 64 {
		s = s[:64] + "..."
	}
	return `"` + s + `"`
}
