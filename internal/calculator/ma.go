package calculator

import (
	"errors"

	"GoldBoard/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// AverageClose returns the mean close over the whole history.
func AverageClose(history []model.OHLCSample) (float64, error) {
	return CalculateSMA(Closes(history), len(history))
}

// Closes extracts the close of every sample, oldest first.
func Closes(history []model.OHLCSample) []float64 {
	closes := make([]float64, len(history))
	for i, s := range history {
		closes[i] = s.Close
	}
	return closes
}
