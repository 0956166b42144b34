package validator

import (
	"errors"
	"strings"
	"time"
)

func ValidateDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, errors.New("invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}

// ValidateStayDates checks the checkout strictly follows the checkin.
func ValidateStayDates(checkin, checkout time.Time) error {
	if !checkout.After(checkin) {
		return errors.New("checkout must be after checkin")
	}
	return nil
}

func ValidateCurrency(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) != 3 {
		return "", errors.New("invalid currency code")
	}
	return c, nil
}

func ValidateLanguage(s string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(s))
	if l == "" {
		return "en", nil
	}
	if len(l) != 2 {
		return "", errors.New("invalid language code")
	}
	return l, nil
}
