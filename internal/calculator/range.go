package calculator

import (
	"errors"
	"math"

	"GoldBoard/internal/model"
)

// HistoryRange scans the samples and returns the highest high and lowest low.
func HistoryRange(history []model.OHLCSample) (high, low float64, err error) {
	if len(history) == 0 {
		return 0, 0, errors.New("no history samples provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, s := range history {
		if s.High > high {
			high = s.High
		}
		if s.Low < low {
			low = s.Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
