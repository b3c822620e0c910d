package utils

import "strconv"

// ParseFloat parses a numeric query parameter. An empty string is treated as
// an explicit zero so callers can use the value without a presence check.
func ParseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParseOptionalFloat parses an optional numeric query parameter. An empty
// string means the parameter was omitted and yields nil.
func ParseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
