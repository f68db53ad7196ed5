package model

import (
	"bytes"
	"encoding/json"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp: время в формате бэкенда. Пустое или нераспознанное значение даёт нулевое время.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON разбирает строку времени в любом из форматов, которые отдают маркетплейсы.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	t.Time = ParseTimestamp(s)
	return nil
}

// MarshalJSON кодирует время в RFC3339, нулевое время кодируется как null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// ParseTimestamp разбирает строку времени бэкенда.
func ParseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			return v
		}
	}
	return time.Time{}
}
