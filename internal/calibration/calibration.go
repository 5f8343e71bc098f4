// Package calibration implements the receiver calibration procedures that
// consume raw power meter readings: Y-factor measurement, minical data
// acquisition under the four load and noise diode combinations, and the
// closed-form reduction to gain, receiver temperature and injected diode
// temperature per channel.
package calibration

import (
	"time"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
)

// ChannelData holds one channel's minical readings, all in watts, taken
// under the four receiver states, plus the physical temperature of the
// ambient load behind its feed.
type ChannelData struct {
	Index int
	Feed  int
	Pol   frontend.Polarization

	Sky    float64
	SkyND  float64
	Load   float64
	LoadND float64

	TloadK float64
}

// Dataset is a complete minical acquisition over all four channels.
type Dataset struct {
	Taken    time.Time
	Channels []ChannelData
}

// Results is the reduced calibration for one channel.
type Results struct {
	Index int

	// GainWPerK converts operating temperature to detector watts.
	GainWPerK float64

	// TlinearK is the receiver temperature assuming a linear detector.
	TlinearK float64

	// TquadraticK is the receiver temperature corrected for detector
	// non-linearity.
	TquadraticK float64

	// TndK is the injected noise diode temperature.
	TndK float64

	// NonLinearity is the ratio of the diode step on the load to the diode
	// step on the sky; unity for a perfectly linear detector.
	NonLinearity float64
}
