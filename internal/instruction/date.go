package instruction

import "time"

// DateLayout is the only accepted execution date format.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a real calendar date written as YYYY-MM-DD.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 4 || i == 7 {
			if c != '-' {
				return false
			}
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}

	month := twoDigits(s[5:7])
	day := twoDigits(s[8:10])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}

	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return false
	}
	return t.Format(DateLayout) == s
}

// Today returns the UTC calendar date of now in DateLayout.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

func twoDigits(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
