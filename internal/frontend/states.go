package frontend

import (
	"math"
	"strings"

	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

const (
	// FeedSky routes the feed horn to the sky
	FeedSky FeedState = "sky"
	// FeedLoad inserts the ambient calibration load into the waveguide
	FeedLoad FeedState = "load"

	// PolE is the E-plane output of the orthomode transducer
	PolE Polarization = "E"
	// PolH is the H-plane output of the orthomode transducer
	PolH Polarization = "H"

	// ModeWatts reports power meter readings in watts
	ModeWatts PowerMeterMode = "W"
	// ModeDBM reports power meter readings in dBm
	ModeDBM PowerMeterMode = "dBm"
)

// Polarizations lists the orthomode outputs in channel-index order. The order
// is load-bearing: downstream calibration correlates meter index to physical
// channel by position.
var Polarizations = []Polarization{PolE, PolH}

type FeedState string

func (s FeedState) String() string {
	return string(s)
}

// ParseFeedState accepts the legacy string forms of a feed target, ignoring
// case and surrounding whitespace.
func ParseFeedState(target string) (FeedState, error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "sky":
		return FeedSky, nil
	case "load":
		return FeedLoad, nil
	}
	return "", driver.NewCalibrationInputError("invalid feed state %q: must be 'sky' or 'load'", target)
}

type Polarization string

func (p Polarization) String() string {
	return string(p)
}

// ParsePolarization accepts the legacy polarization codes, ignoring case and
// surrounding whitespace.
func ParsePolarization(code string) (Polarization, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "E", "X":
		return PolE, nil
	case "H", "Y", "V":
		return PolH, nil
	}
	return "", driver.NewInvalidPolarizationError(code)
}

type PowerMeterMode string

func (m PowerMeterMode) String() string {
	return string(m)
}

// Convert translates a power meter reading in watts into the mode's display
// units. The underlying reading is always kept in watts; conversion applies
// to reporting only.
func (m PowerMeterMode) Convert(watts float64) float64 {
	if m == ModeDBM {
		return 10 * math.Log10(watts/1e-3)
	}
	return watts
}

func validPolarization(pol Polarization) bool {
	return pol == PolE || pol == PolH
}
