package models

import (
	"fmt"
	"strings"
	"time"
)

// BaseRecord carries the store-assigned identity and timestamps shared by
// every collection. IDs are opaque and never generated client-side.
type BaseRecord struct {
	ID      string   `json:"id"`
	Created DateTime `json:"created"`
	Updated DateTime `json:"updated"`
}

// DateTime wraps time.Time to accept the record store's timestamp layout
// ("2006-01-02 15:04:05.000Z") alongside RFC 3339.
type DateTime struct {
	time.Time
}

const storeLayout = "2006-01-02 15:04:05.000Z"

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{storeLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Time.UTC().Format(time.RFC3339) + `"`), nil
}
