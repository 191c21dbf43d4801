package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2025-06-06")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseDateEmpty(t *testing.T) {
	if _, ok := ParseDate(""); ok {
		t.Fatalf("expected not ok")
	}
}

func TestParseDateBadLayout(t *testing.T) {
	if _, ok := ParseDate("06/06/2025"); ok {
		t.Fatalf("expected not ok")
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, 6, 6, 15, 4, 5, 0, time.FixedZone("CST", 8*3600))
	if got := FormatDate(d); got != "2025-06-06" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestDateOnly(t *testing.T) {
	d := time.Date(2025, 6, 6, 23, 59, 59, 0, time.UTC)
	got := DateOnly(d)
	want := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected date %v", got)
	}
}
