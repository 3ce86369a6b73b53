package model

import "errors"

// Phase is the lifecycle phase of the refresh controller.
type Phase string

const (
	PhaseColdStart      Phase = "COLD_START"
	PhaseLoading        Phase = "LOADING"
	PhaseReady          Phase = "READY"
	PhaseReadyWithError Phase = "READY_WITH_ERROR"
)

// ErrDataUnavailable is returned when the price or rate feed fails.
var ErrDataUnavailable = errors.New("market data unavailable")

// DataUnavailableMessage is the user-facing text for ErrDataUnavailable.
const DataUnavailableMessage = "বাজারের তথ্য লোড করতে সমস্যা হচ্ছে। কিছুক্ষণ পর আবার চেষ্টা করুন।"

// RefreshState is what the presentation layer reads.
type RefreshState struct {
	Phase Phase
	// Snapshot is nil until the first successful fetch or cache hit.
	Snapshot  *MarketSnapshot
	IsLoading bool
	Err       error
	Message   string
}

// Prices returns the current price list, empty for the cold-start placeholder.
func (s RefreshState) Prices() []PricePoint {
	if s.Snapshot == nil {
		return nil
	}
	return s.Snapshot.Prices
}
