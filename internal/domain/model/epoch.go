package model

import (
	"encoding/json"
	"math"
	"time"
)

// Epoch is a point in time as seconds since the Unix epoch. The positive
// infinity value marks an unknown time; it sorts last and is never close to
// any other value.
type Epoch float64

// InfEpoch is the unknown-time sentinel.
var InfEpoch = Epoch(math.Inf(1))

// EpochOf converts t to an Epoch with nanosecond precision.
func EpochOf(t time.Time) Epoch {
	return Epoch(float64(t.Unix()) + float64(t.Nanosecond())/1e9)
}

// IsInf reports whether e is the unknown-time sentinel.
func (e Epoch) IsInf() bool { return math.IsInf(float64(e), 0) || math.IsNaN(float64(e)) }

// Diff returns |e-o| in seconds, or +Inf when either side is unknown.
func (e Epoch) Diff(o Epoch) float64 {
	if e.IsInf() || o.IsInf() {
		return math.Inf(1)
	}
	return math.Abs(float64(e) - float64(o))
}

// Add returns e shifted by d; unknown stays unknown.
func (e Epoch) Add(d time.Duration) Epoch {
	if e.IsInf() {
		return InfEpoch
	}
	return e + Epoch(d.Seconds())
}

// Mid returns the midpoint of e and o; unknown if either is unknown.
func (e Epoch) Mid(o Epoch) Epoch {
	if e.IsInf() || o.IsInf() {
		return InfEpoch
	}
	return (e + o) / 2
}

// Time converts e to a UTC time. The zero time is returned for unknown values.
func (e Epoch) Time() time.Time {
	if e.IsInf() {
		return time.Time{}
	}
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}

// MarshalJSON encodes unknown times as null.
func (e Epoch) MarshalJSON() ([]byte, error) {
	if e.IsInf() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(e))
}

// UnmarshalJSON decodes null as unknown.
func (e *Epoch) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = InfEpoch
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*e = Epoch(f)
	return nil
}
