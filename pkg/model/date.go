package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// DateRange is the half-open stay [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// NormalizeDate drops the clock part and pins the date to UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: NormalizeDate(checkIn), CheckOut: NormalizeDate(checkOut)}
}

func (r DateRange) Empty() bool {
	return !r.CheckIn.Before(r.CheckOut)
}

// Overlaps is true iff a < d and c < b for [a,b) and [c,d).
// Same-day turnover (one range ending where the other starts) does not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(r.CheckOut)
}

func (r DateRange) Nights() int {
	if r.Empty() {
		return 0
	}
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format(DateLayout), r.CheckOut.Format(DateLayout))
}
