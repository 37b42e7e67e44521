package media

import "testing"

func TestFormatTimecode(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61.7, "00:01:01"},
		{3600, "01:00:00"},
		{3725, "01:02:05"},
		{-5, "00:00:00"},
	}

	for _, tc := range cases {
		got := FormatTimecode(tc.seconds)
		if got != tc.want {
			t.Errorf("FormatTimecode(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestParseTimecode(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"00:05:00", 300},
		{"01:30:00", 5400},
		{"05:00", 300},
		{"0:42", 42},
		{"90", 90},
		{"90.5", 90.5},
		{" 00:01:10 ", 70},
	}

	for _, tc := range cases {
		got, err := ParseTimecode(tc.input)
		if err != nil {
			t.Errorf("ParseTimecode(%q) failed: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimecode(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseTimecodeInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "1:2:3:4", "aa:bb", "12:cd:34"} {
		if _, err := ParseTimecode(input); err == nil {
			t.Errorf("ParseTimecode(%q) succeeded, want error", input)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, tc := range []string{"00:00:01", "00:10:00", "02:34:56"} {
		seconds, err := ParseTimecode(tc)
		if err != nil {
			t.Fatalf("ParseTimecode(%q) failed: %v", tc, err)
		}
		if got := FormatTimecode(seconds); got != tc {
			t.Errorf("round trip of %q produced %q", tc, got)
		}
	}
}
