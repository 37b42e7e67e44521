package media

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTimecode converts seconds to HH:MM:SS format
func FormatTimecode(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseTimecode converts HH:MM:SS, MM:SS or plain seconds to seconds
func ParseTimecode(timecode string) (float64, error) {
	tc := strings.TrimSpace(timecode)
	if tc == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	parts := strings.Split(tc, ":")
	switch len(parts) {
	case 3:
		h, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		s, err3 := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return 0, fmt.Errorf("invalid timecode %q", timecode)
		}
		return float64(h)*3600 + float64(m)*60 + s, nil
	case 2:
		m, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		s, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid timecode %q", timecode)
		}
		return float64(m)*60 + s, nil
	case 1:
		s, err := strconv.ParseFloat(tc, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timecode %q", timecode)
		}
		return s, nil
	default:
		return 0, fmt.Errorf("invalid timecode %q", timecode)
	}
}
