package utils

import (
	"fmt"
	"time"
)

// ParseDate interpreta uma data no formato YYYY-MM-DD.
func ParseDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("data vazia; formato esperado YYYY-MM-DD")
	}

	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		return time.Time{}, err
	}

	return date, nil
}
