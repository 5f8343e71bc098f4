package protocol

import (
	"github.com/deepspace-ra/kband-frontend/internal/calibration"
	"github.com/deepspace-ra/kband-frontend/internal/frontend"
)

// ResultKind discriminates the legacy menu's response shapes. The shape
// varies by option code and is part of the historical contract.
type ResultKind int

const (
	// ResultNone is a pure control action with no payload.
	ResultNone ResultKind = iota

	// ResultText carries preformatted report text.
	ResultText

	// ResultBool carries a single boolean state.
	ResultBool

	// ResultReadings carries the ordered power meter readings.
	ResultReadings

	// ResultTemperatures carries the named physical temperatures.
	ResultTemperatures

	// ResultChannelMap carries one value per meter index, such as
	// Y-factors or receiver temperature estimates.
	ResultChannelMap

	// ResultMinical carries a minical dataset with its reduction.
	ResultMinical
)

// Result is one legacy menu response.
type Result struct {
	Kind ResultKind

	Text         string
	Bool         bool
	Readings     []frontend.PowerReading
	Temperatures map[string]float64
	ChannelMap   map[int]float64

	Minical        *calibration.Dataset
	MinicalResults []calibration.Results
}

func none() (Result, error) {
	return Result{Kind: ResultNone}, nil
}
