package naming

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// formatDateTime renders t using a java.time.format.DateTimeFormatter pattern.
//
// Supported letters: G u y Q q M L d D E a h K k H m s S A n N V z O X x Z.
// Text in single quotes is literal, '' is a quote, and optional section
// brackets are dropped because every supported field is always available.
// Week based fields are rejected.
func formatDateTime(pattern string, t time.Time) (string, error) {
	var out strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '\'':
			text, next, err := quoted(runes, i)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			i = next
		case r == '[' || r == ']':
			i++
		case r == '#' || r == '{' || r == '}':
			return "", fmt.Errorf("reserved pattern character %q", r)
		case isLetter(r):
			count := 1
			for i+count < len(runes) && runes[i+count] == r {
				count++
			}
			field, err := formatField(r, count, t)
			if err != nil {
				return "", err
			}
			out.WriteString(field)
			i += count
		default:
			out.WriteRune(r)
			i++
		}
	}
	return out.String(), nil
}

// quoted reads a literal starting at the quote at runes[start].
func quoted(runes []rune, start int) (string, int, error) {
	if start+1 < len(runes) && runes[start+1] == '\'' {
		return "'", start + 2, nil
	}
	var text strings.Builder
	for i := start + 1; i < len(runes); i++ {
		if runes[i] != '\'' {
			text.WriteRune(runes[i])
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '\'' {
			text.WriteRune('\'')
			i++
			continue
		}
		return text.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("unterminated literal at position %d", start)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func formatField(letter rune, count int, t time.Time) (string, error) {
	switch letter {
	case 'G':
		if count <= 3 {
			return "AD", nil
		}
		return textForm(count-2, "AD", "Anno Domini", "A")
	case 'u', 'y':
		return year(count, t.Year()), nil
	case 'Q', 'q':
		q := (int(t.Month())-1)/3 + 1
		switch count {
		case 1, 2:
			return pad(q, count), nil
		case 3:
			return "Q" + strconv.Itoa(q), nil
		case 4:
			return ordinal(q) + " quarter", nil
		case 5:
			return strconv.Itoa(q), nil
		}
	case 'M', 'L':
		switch count {
		case 1, 2:
			return pad(int(t.Month()), count), nil
		default:
			name := t.Month().String()
			return textForm(count-2, name[:3], name, name[:1])
		}
	case 'd', 'h', 'K', 'k', 'H', 'm', 's':
		if count > 2 {
			break
		}
		return pad(clockValue(letter, t), count), nil
	case 'D':
		if count > 3 {
			break
		}
		return pad(t.YearDay(), count), nil
	case 'E':
		name := t.Weekday().String()
		if count <= 3 {
			return name[:3], nil
		}
		return textForm(count-2, name[:3], name, name[:1])
	case 'a':
		if t.Hour() < 12 {
			return "AM", nil
		}
		return "PM", nil
	case 'S':
		if count > 9 {
			break
		}
		return fmt.Sprintf("%09d", t.Nanosecond())[:count], nil
	case 'A':
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return pad(int(t.Sub(midnight)/time.Millisecond), count), nil
	case 'n':
		return pad(t.Nanosecond(), count), nil
	case 'N':
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return pad(int(t.Sub(midnight)), count), nil
	case 'V', 'z':
		_, offset := t.Zone()
		if offset == 0 && t.Location() == time.UTC {
			return "Z", nil
		}
		return t.Location().String(), nil
	case 'O':
		return "GMT" + offsetText(t, ":", false, true), nil
	case 'X', 'x', 'Z':
		return zoneOffset(letter, count, t)
	}
	return "", fmt.Errorf("unsupported pattern letters %q", strings.Repeat(string(letter), count))
}

func clockValue(letter rune, t time.Time) int {
	switch letter {
	case 'd':
		return t.Day()
	case 'h':
		if h := t.Hour() % 12; h != 0 {
			return h
		}
		return 12
	case 'K':
		return t.Hour() % 12
	case 'k':
		if t.Hour() == 0 {
			return 24
		}
		return t.Hour()
	case 'H':
		return t.Hour()
	case 'm':
		return t.Minute()
	default:
		return t.Second()
	}
}

// textForm picks the short (1), full (2) or narrow (3) form of a textual field.
func textForm(form int, short, full, narrow string) (string, error) {
	switch form {
	case 1:
		return short, nil
	case 2:
		return full, nil
	case 3:
		return narrow, nil
	}
	return "", fmt.Errorf("too many pattern letters for text field")
}

func year(count, y int) string {
	if count == 2 {
		return pad(((y%100)+100)%100, 2)
	}
	return pad(y, count)
}

func pad(v, width int) string {
	s := strconv.Itoa(v)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return strconv.Itoa(n) + "th"
}

// zoneOffset renders X, x and Z offset patterns. X prints "Z" for a zero offset.
func zoneOffset(letter rune, count int, t time.Time) (string, error) {
	_, offset := t.Zone()
	if letter == 'Z' {
		switch {
		case count <= 3:
			return offsetText(t, "", false, false), nil
		case count == 4:
			return "GMT" + offsetText(t, ":", false, true), nil
		case count == 5:
			if offset == 0 {
				return "Z", nil
			}
			return offsetText(t, ":", false, false), nil
		}
		return "", fmt.Errorf("too many pattern letters for offset")
	}
	if letter == 'X' && offset == 0 {
		return "Z", nil
	}
	switch count {
	case 1:
		return offsetText(t, "", true, false), nil
	case 2, 4:
		return offsetText(t, "", false, false), nil
	case 3, 5:
		return offsetText(t, ":", false, false), nil
	}
	return "", fmt.Errorf("too many pattern letters for offset")
}

// offsetText formats the zone offset as +HH[sep]MM. hoursOnly drops zero minutes;
// localized drops the offset entirely when it is zero, as GMT does.
func offsetText(t time.Time, sep string, hoursOnly, localized bool) string {
	_, offset := t.Zone()
	if localized && offset == 0 {
		return ""
	}
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	hours, minutes := offset/3600, (offset%3600)/60
	if hoursOnly && minutes == 0 {
		return sign + pad(hours, 2)
	}
	return sign + pad(hours, 2) + sep + pad(minutes, 2)
}
