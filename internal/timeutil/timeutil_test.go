package timeutil

import (
	"testing"
	"time"
)

func TestStartOfDay(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 1, 14, 37, 9, 123, time.Local)
	got := StartOfDay(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
}

func TestMostRecentMonday(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input time.Time
		want  string
	}{
		{name: "wednesday", input: time.Date(2026, 10, 14, 15, 4, 0, 0, time.Local), want: "2026-10-12"},
		{name: "monday", input: time.Date(2026, 10, 12, 8, 0, 0, 0, time.Local), want: "2026-10-12"},
		{name: "sunday", input: time.Date(2026, 10, 18, 23, 59, 0, 0, time.Local), want: "2026-10-12"},
	}
	for _, tc := range cases {
		got := MostRecentMonday(tc.input)
		if FormatDay(got) != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, FormatDay(got))
		}
		if got.Hour() != 0 || got.Minute() != 0 {
			t.Fatalf("%s: expected midnight, got %v", tc.name, got)
		}
	}
}

func TestParseDayRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := ParseDay("14.10.2026"); err == nil {
		t.Fatalf("expected parse error")
	}
	day, err := ParseDay(" 2026-10-14 ")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	if FormatDay(day) != "2026-10-14" {
		t.Fatalf("unexpected day: %v", day)
	}
}

func TestNoonIn(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	got, err := NoonIn(day, "America/New_York")
	if err != nil {
		t.Fatalf("noon in: %v", err)
	}
	if got.Format("2006-01-02T15:04:05-0700") != "2026-01-05T12:00:00-0500" {
		t.Fatalf("unexpected noon: %s", got.Format(time.RFC3339))
	}

	if _, err := NoonIn(day, "Mars/Olympus_Mons"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
