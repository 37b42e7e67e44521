package media

import "testing"

func TestParseSilenceLog(t *testing.T) {
	logText := `
[silencedetect @ 0x5555] silence_start: 12.345
[silencedetect @ 0x5555] silence_end: 13.100 | silence_duration: 0.755
[silencedetect @ 0x5555] silence_start: 45.0
[silencedetect @ 0x5555] silence_end: 46.5 | silence_duration: 1.5
`
	intervals := parseSilenceLog(logText)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d: %+v", len(intervals), intervals)
	}
	if intervals[0].Start != 12.345 || intervals[0].End != 13.1 {
		t.Errorf("first interval = %+v, want {12.345 13.1}", intervals[0])
	}
	if intervals[1].Start != 45.0 || intervals[1].End != 46.5 {
		t.Errorf("second interval = %+v, want {45 46.5}", intervals[1])
	}
}

func TestParseSilenceLogTruncated(t *testing.T) {
	// A silence running past the analyzed range has no silence_end marker.
	// It must be dropped, not reported as an open interval.
	logText := `
silence_start: 10.0
silence_end: 11.0
silence_start: 58.0
`
	intervals := parseSilenceLog(logText)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d: %+v", len(intervals), intervals)
	}
	if intervals[0].Start != 10.0 || intervals[0].End != 11.0 {
		t.Errorf("interval = %+v, want {10 11}", intervals[0])
	}
}

func TestParseSilenceLogSupersededStart(t *testing.T) {
	// Two starts before any end: the later start wins.
	logText := `
silence_start: 5.0
silence_start: 7.0
silence_end: 8.0
`
	intervals := parseSilenceLog(logText)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d: %+v", len(intervals), intervals)
	}
	if intervals[0].Start != 7.0 || intervals[0].End != 8.0 {
		t.Errorf("interval = %+v, want {7 8}", intervals[0])
	}
}

func TestParseSilenceLogEmpty(t *testing.T) {
	if intervals := parseSilenceLog("frame=  100 fps= 25 size=N/A"); len(intervals) != 0 {
		t.Errorf("expected no intervals, got %+v", intervals)
	}
}

func TestSilenceIntervalHelpers(t *testing.T) {
	iv := SilenceInterval{Start: 10, End: 12}
	if iv.Duration() != 2 {
		t.Errorf("Duration() = %v, want 2", iv.Duration())
	}
	if iv.Midpoint() != 11 {
		t.Errorf("Midpoint() = %v, want 11", iv.Midpoint())
	}
}
