package clock_test

import (
	"strings"
	"testing"
	"time"

	"github.com/fulfillkit/inboundplan/internal/clock"
)

func testNow(t *testing.T, now time.Time) {
	if now.IsZero() {
		t.Errorf("Now() returned zero time")
	}
	if !strings.HasSuffix(now.String(), "UTC") {
		t.Errorf("Now() did not return UTC time")
	}
}

func TestNow(t *testing.T) {
	testNow(t, clock.Now())
}

func TestRealClockNow(t *testing.T) {
	c := clock.RealClock{}
	testNow(t, c.Now())
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 5, 7, 13, 45, 0, 0, time.UTC)
	if got := clock.FormatDate(d); got != "2024-05-07" {
		t.Errorf("FormatDate() = %s, want 2024-05-07", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := clock.ParseDate("2024-05-07")
	if err != nil {
		t.Fatalf("ParseDate() returned error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.May || d.Day() != 7 {
		t.Errorf("ParseDate() = %v", d)
	}
	if _, err := clock.ParseDate("07/05/2024"); err == nil {
		t.Errorf("ParseDate() accepted an invalid layout")
	}
}
