package util

import (
	"fmt"
	"time"
)

// MarketSession describes a weekday trading session in a fixed exchange timezone.
type MarketSession struct {
	loc      *time.Location
	openMin  int
	closeMin int
	holidays map[string]struct{}
}

// NewMarketSession builds a session from a timezone name, "HH:MM" open and
// close times, and holiday dates formatted as YYYY-MM-DD.
func NewMarketSession(timezone, open, close string, holidays []string) (*MarketSession, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		// the IST offset is fixed, so fall back when tzdata is unavailable
		if timezone != "Asia/Kolkata" {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	openMin, err := parseClock(open)
	if err != nil {
		return nil, fmt.Errorf("market open: %w", err)
	}
	closeMin, err := parseClock(close)
	if err != nil {
		return nil, fmt.Errorf("market close: %w", err)
	}
	if closeMin <= openMin {
		return nil, fmt.Errorf("market close %s is not after open %s", close, open)
	}
	s := &MarketSession{
		loc:      loc,
		openMin:  openMin,
		closeMin: closeMin,
		holidays: make(map[string]struct{}, len(holidays)),
	}
	for _, h := range holidays {
		d, err := time.ParseInLocation(time.DateOnly, h, loc)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h, err)
		}
		s.holidays[d.Format(time.DateOnly)] = struct{}{}
	}
	return s, nil
}

// NSESession is the default 09:15-15:30 IST session without holidays.
func NSESession() *MarketSession {
	s, _ := NewMarketSession("Asia/Kolkata", "09:15", "15:30", nil)
	return s
}

func parseClock(v string) (int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Location returns the exchange timezone.
func (s *MarketSession) Location() *time.Location { return s.loc }

// IsTradingDay reports whether t falls on a weekday that is not a holiday.
func (s *MarketSession) IsTradingDay(t time.Time) bool {
	local := t.In(s.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, holiday := s.holidays[local.Format(time.DateOnly)]
	return !holiday
}

// IsOpen reports whether t is inside the session. Open is inclusive, close exclusive.
func (s *MarketSession) IsOpen(t time.Time) bool {
	if !s.IsTradingDay(t) {
		return false
	}
	local := t.In(s.loc)
	m := local.Hour()*60 + local.Minute()
	return m >= s.openMin && m < s.closeMin
}

// NextOpen returns the next session open at or after t.
func (s *MarketSession) NextOpen(t time.Time) time.Time {
	local := t.In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	for i := 0; i < 15; i++ {
		d := day.AddDate(0, 0, i)
		open := d.Add(time.Duration(s.openMin) * time.Minute)
		if s.IsTradingDay(d) && !open.Before(local) {
			return open
		}
	}
	return day.AddDate(0, 0, 1).Add(time.Duration(s.openMin) * time.Minute)
}
