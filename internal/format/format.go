package format

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// DefaultTimeZone is used when the client does not name one.
const DefaultTimeZone = "Africa/Nairobi"

const (
	dateTimeLayout = "Jan 2, 2006, 3:04 PM"
	dateDayLayout  = "Mon, 01/02/2006"
	dateOnlyLayout = "Jan 2, 2006"
	timeOnlyLayout = "3:04 PM"
)

// FormattedDateTime holds display strings for one instant
type FormattedDateTime struct {
	DateTime string `json:"dateTime"`
	DateDay  string `json:"dateDay"`
	DateOnly string `json:"dateOnly"`
	TimeOnly string `json:"timeOnly"`
}

// LoadTimeZone resolves an IANA zone name; empty means DefaultTimeZone.
func LoadTimeZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	return loc, nil
}

// FormatDateTime renders t in loc using en-US shapes.
func FormatDateTime(t time.Time, loc *time.Location) FormattedDateTime {
	local := t.In(loc)
	return FormattedDateTime{
		DateTime: local.Format(dateTimeLayout),
		DateDay:  local.Format(dateDayLayout),
		DateOnly: local.Format(dateOnlyLayout),
		TimeOnly: local.Format(timeOnlyLayout),
	}
}

// FormatDateTimeIn is FormatDateTime with the zone given by name.
func FormatDateTimeIn(t time.Time, timeZone string) (FormattedDateTime, error) {
	loc, err := LoadTimeZone(timeZone)
	if err != nil {
		return FormattedDateTime{}, err
	}
	return FormatDateTime(t, loc), nil
}
