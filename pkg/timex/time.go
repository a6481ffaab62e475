package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Layout is the wire format of Time: RFC 3339 with millisecond precision, UTC.
const Layout = "2006-01-02T15:04:05.000Z07:00"

// Time is a time.Time with a fixed JSON layout.
type Time time.Time

// Now returns the current time truncated to milliseconds, the precision that
// survives JSON and every supported database.
func Now() Time {
	return Time(time.Now().UTC().Truncate(time.Millisecond))
}

func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) After(u Time) bool {
	return time.Time(t).After(time.Time(u))
}

func (t Time) Equal(u Time) bool {
	return time.Time(t).Equal(time.Time(u))
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) String() string {
	return time.Time(t).UTC().Format(Layout)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Time{}
		return nil
	}
	parsed, err := time.Parse(`"`+Layout+`"`, s)
	if err != nil {
		parsed, err = time.Parse(`"`+time.RFC3339Nano+`"`, s)
		if err != nil {
			return fmt.Errorf("timex: parse %s: %w", s, err)
		}
	}
	*t = Time(parsed)
	return nil
}

// Value implements driver.Valuer.
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan implements sql.Scanner.
func (t *Time) Scan(v interface{}) error {
	switch val := v.(type) {
	case nil:
		*t = Time{}
	case time.Time:
		*t = Time(val)
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			parsed, err = time.Parse("2006-01-02 15:04:05.999999999-07:00", val)
			if err != nil {
				return fmt.Errorf("timex: scan %q: %w", val, err)
			}
		}
		*t = Time(parsed)
	default:
		return fmt.Errorf("timex: cannot scan %T", v)
	}
	return nil
}
