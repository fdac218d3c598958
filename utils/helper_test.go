package utils

import (
	"testing"
	"time"
)

func TestDaysBetween(t *testing.T) {
	day := func(s string) time.Time {
		parsed, err := ParseDate(s)
		if err != nil {
			t.Fatalf("bad date %s: %v", s, err)
		}
		return parsed
	}

	cases := []struct {
		start    string
		end      string
		expected int
	}{
		{"2024-06-01", "2024-06-01", 1},
		{"2024-06-01", "2024-06-30", 30},
		{"2024-02-01", "2024-02-29", 29}, // leap year
		{"2024-06-30", "2024-06-01", 0},  // inverted
	}
	for _, tc := range cases {
		if got := DaysBetween(day(tc.start), day(tc.end)); got != tc.expected {
			t.Fatalf("DaysBetween(%s, %s): expected %d, got %d", tc.start, tc.end, tc.expected, got)
		}
	}
}

func TestEachDayInclusive(t *testing.T) {
	start, _ := ParseDate("2024-06-28")
	end, _ := ParseDate("2024-07-02")

	var visited []string
	EachDay(start, end, func(day time.Time) {
		visited = append(visited, FormatDate(day))
	})

	expected := []string{"2024-06-28", "2024-06-29", "2024-06-30", "2024-07-01", "2024-07-02"}
	if len(visited) != len(expected) {
		t.Fatalf("expected %d days, got %d", len(expected), len(visited))
	}
	for i := range expected {
		if visited[i] != expected[i] {
			t.Fatalf("day %d: expected %s, got %s", i, expected[i], visited[i])
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	if got := DaysInMonth(time.February, 2024); got != 29 {
		t.Fatalf("expected 29 days in Feb 2024, got %d", got)
	}
	if got := DaysInMonth(time.February, 2023); got != 28 {
		t.Fatalf("expected 28 days in Feb 2023, got %d", got)
	}
	if got := DaysInMonth(time.December, 2024); got != 31 {
		t.Fatalf("expected 31 days in Dec 2024, got %d", got)
	}
}
