package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}
func TestAlignFromTo(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 17, 42, 0, time.UTC)
	to := time.Date(2024, 10, 10, 13, 3, 9, 0, time.UTC)

	gf, gt := AlignFromTo(from, to, "15m")
	if gf.Minute() != 15 || gf.Second() != 0 {
		t.Fatalf("unexpected from %v", gf)
	}
	if gt.Hour() != 13 || gt.Minute() != 0 {
		t.Fatalf("unexpected to %v", gt)
	}

	gf, _ = AlignFromTo(from, to, "4h")
	if gf.Hour() != 8 || gf.Minute() != 0 {
		t.Fatalf("unexpected 4h from %v", gf)
	}
}

func TestTimeframeDurationFallback(t *testing.T) {
	if TimeframeDuration("7x") != time.Minute {
		t.Fatalf("expected fallback to one minute")
	}
}
