package entity

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// RawRecord represents an unvalidated sighting submission
type RawRecord struct {
	ID            uint         `csv:"id"`
	SpeciesName   string       `csv:"species_name"`
	Location      string       `csv:"location"`
	Latitude      *string      `csv:"latitude,omitempty"` // as submitted, may be non-numeric
	Longitude     *string      `csv:"longitude,omitempty"`
	SightingDate  RawTimestamp `csv:"sighting_date"`
	ObserverName  string       `csv:"observer_name"`
	ObserverEmail *string      `csv:"observer_email,omitempty"`
	Description   *string      `csv:"description,omitempty"`
	PhotoURL      *string      `csv:"photo_url,omitempty"`
	CreatedAt     time.Time    `csv:"created_at"`
}

// RawTimestamp holds a sighting date as submitted: a resolved time, an
// unparsed string, or nothing at all.
type RawTimestamp struct {
	Time *time.Time
	Text string
}

// TimestampOf wraps a resolved time
func TimestampOf(t time.Time) RawTimestamp {
	return RawTimestamp{Time: &t}
}

// TimestampText wraps an unparsed date string
func TimestampText(s string) RawTimestamp {
	return RawTimestamp{Text: s}
}

// IsNull reports whether no date was submitted
func (t RawTimestamp) IsNull() bool {
	return t.Time == nil && t.Text == ""
}

// Scan implements sql.Scanner
func (t *RawTimestamp) Scan(src interface{}) error {
	*t = RawTimestamp{}
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		t.Time = &v
	case string:
		t.Text = v
	case []byte:
		t.Text = string(v)
	default:
		return fmt.Errorf("unsupported sighting date type %T", src)
	}
	return nil
}

// MarshalText renders the date the way it is stored
func (t RawTimestamp) MarshalText() ([]byte, error) {
	if t.Time != nil {
		return []byte(t.Time.Format(time.RFC3339Nano)), nil
	}
	return []byte(t.Text), nil
}

// Value implements driver.Valuer. Resolved times are stored as RFC3339 text
// so the column accepts both shapes on every dialect.
func (t RawTimestamp) Value() (driver.Value, error) {
	if t.Time != nil {
		return t.Time.Format(time.RFC3339Nano), nil
	}
	if t.Text != "" {
		return t.Text, nil
	}
	return nil, nil
}
