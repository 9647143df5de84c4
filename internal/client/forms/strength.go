package forms

import "unicode/utf8"

// Segments is the number of bars in the strength meter.
const Segments = 5

// Strength is what the meter renders for a score.
type Strength struct {
	Score int
	Label string
	Color string
}

// Score counts satisfied criteria: length over 8, an upper-case letter, a
// lower-case letter, a digit and a non-alphanumeric character.
func Score(password string) int {
	var upper, lower, digit, other bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	score := 0
	for _, ok := range []bool{utf8.RuneCountInString(password) > 8, upper, lower, digit, other} {
		if ok {
			score++
		}
	}
	return score
}

// Indicate maps a score to its label and color. It is total: scores outside
// 0..5 yield the neutral "Enter a password" state.
func Indicate(score int) Strength {
	s := Strength{Score: score}
	switch score {
	case 0, 1:
		s.Label, s.Color = "Very Weak", "red"
	case 2:
		s.Label, s.Color = "Weak", "orange"
	case 3:
		s.Label, s.Color = "Fair", "yellow"
	case 4:
		s.Label, s.Color = "Good", "blue"
	case 5:
		s.Label, s.Color = "Strong", "green"
	default:
		s.Score, s.Label, s.Color = 0, "Enter a password", "gray"
	}
	return s
}

// Filled reports whether segment i (0-based) is lit.
func (s Strength) Filled(i int) bool {
	return i < s.Score
}

// Bar renders the meter as text, e.g. "[###--] Fair".
func (s Strength) Bar() string {
	b := make([]byte, 0, Segments+2)
	b = append(b, '[')
	for i := 0; i < Segments; i++ {
		if s.Filled(i) {
			b = append(b, '#')
		} else {
			b = append(b, '-')
		}
	}
	b = append(b, ']')
	return string(b) + " " + s.Label
}

// Measure is Indicate(Score(password)).
func Measure(password string) Strength {
	return Indicate(Score(password))
}
