package frontend

import (
	"fmt"
	"math"
)

// ChannelCal holds the per-channel calibration constants. Receiver
// temperatures and system gain factors were fit from commissioning
// measurements; they are per-unit data and do not carry over to a different
// receiver.
type ChannelCal struct {
	// ReceiverTempK is the receiver noise temperature referred to the input.
	ReceiverTempK float64 `yaml:"receiverTempK"`

	// TsysFactor divides the operating temperature to give the power meter
	// reading in watts.
	TsysFactor float64 `yaml:"tsysFactor"`

	// DetectorScale converts detector volts to watts when reading a real
	// power meter through the DAQ unit. Unused in simulation.
	DetectorScale float64 `yaml:"detectorScale"`
}

// NoiseDiodeCal holds the noise diode calibration.
type NoiseDiodeCal struct {
	// MaxK is the unattenuated diode temperature.
	MaxK float64 `yaml:"maxK"`

	// AttenuationDB is the attenuator setting at start-up.
	AttenuationDB float64 `yaml:"attenuationDB"`

	// CtrlVoltageFit maps a target diode temperature in kelvin to the
	// attenuator control voltage. Polynomial coefficients, highest power
	// first, fit offline over measured data.
	CtrlVoltageFit []float64 `yaml:"ctrlVoltageFit"`
}

// Calibration is the immutable set of physical and calibration constants a
// FrontEnd is built around. Multiple receiver instances can carry independent
// calibration sets.
type Calibration struct {
	Channels   map[int]map[Polarization]ChannelCal `yaml:"channels"`
	NoiseDiode NoiseDiodeCal                       `yaml:"noiseDiode"`

	// AmbientLoadK is the approximate physical temperature of the waveguide
	// loads.
	AmbientLoadK float64 `yaml:"ambientLoadK"`

	// FeedConeK is the ambient temperature inside the feed cone.
	FeedConeK float64 `yaml:"feedConeK"`

	// Sky contributions: cosmic background, blockage/spillover/ohmic losses
	// and median atmospheric brightness, all in kelvin.
	CosmicBackgroundK float64 `yaml:"cosmicBackgroundK"`
	SpilloverK        float64 `yaml:"spilloverK"`
	AtmosphereK       float64 `yaml:"atmosphereK"`

	// CryoSensorKPerV converts cryostat sensor volts to kelvin when reading
	// through the DAQ unit. Unused in simulation.
	CryoSensorKPerV float64 `yaml:"cryoSensorKPerV"`

	CenterFrequencyGHz float64 `yaml:"centerFrequencyGHz"`
	BandwidthGHz       float64 `yaml:"bandwidthGHz"`
}

// DefaultCalibration returns the K2 commissioning constants. Receiver
// temperatures are from the published performance paper, the diode fit from
// the attenuator curve measurements.
func DefaultCalibration() Calibration {
	return Calibration{
		Channels: map[int]map[Polarization]ChannelCal{
			1: {
				PolE: {ReceiverTempK: 19.65, TsysFactor: 999883083, DetectorScale: 1},
				PolH: {ReceiverTempK: 19.75, TsysFactor: 840000000, DetectorScale: 1},
			},
			2: {
				PolE: {ReceiverTempK: 22.27, TsysFactor: 690000000, DetectorScale: 1},
				PolH: {ReceiverTempK: 20.55, TsysFactor: 705797017, DetectorScale: 1},
			},
		},
		NoiseDiode: NoiseDiodeCal{
			MaxK:          384.6,
			AttenuationDB: -9.86,
			CtrlVoltageFit: []float64{
				3.85013993e-18, -6.61616152e-15, 4.62228606e-12,
				-1.68733555e-09, 3.43138077e-07, -3.82875899e-05,
				2.20822016e-03, -8.38473034e-02, 1.52678586e+00,
			},
		},
		AmbientLoadK:       320,
		FeedConeK:          273.15 + 20,
		CosmicBackgroundK:  2.73,
		SpilloverK:         2,
		AtmosphereK:        9,
		CryoSensorKPerV:    100,
		CenterFrequencyGHz: 22.0,
		BandwidthGHz:       10.0,
	}
}

// SkyTempK returns the operating temperature contribution seen on the sky,
// excluding the noise diode.
func (c *Calibration) SkyTempK(feed int, pol Polarization) float64 {
	return c.CosmicBackgroundK + c.Channels[feed][pol].ReceiverTempK + c.SpilloverK + c.AtmosphereK
}

// LoadTempK returns the operating temperature contribution with the ambient
// load in, excluding the noise diode.
func (c *Calibration) LoadTempK(feed int, pol Polarization) float64 {
	return c.Channels[feed][pol].ReceiverTempK + c.FeedConeK
}

// Validate checks that the calibration covers both feeds and both
// polarizations with physical values.
func (c *Calibration) Validate() error {
	for _, feed := range []int{1, 2} {
		pols, ok := c.Channels[feed]
		if !ok {
			return fmt.Errorf("calibration missing feed %d", feed)
		}
		for _, pol := range Polarizations {
			cc, ok := pols[pol]
			if !ok {
				return fmt.Errorf("calibration missing feed %d pol %s", feed, pol)
			}
			if cc.TsysFactor <= 0 || math.IsNaN(cc.TsysFactor) {
				return fmt.Errorf("feed %d pol %s: tsys factor must be positive", feed, pol)
			}
			if cc.ReceiverTempK < 0 || math.IsNaN(cc.ReceiverTempK) {
				return fmt.Errorf("feed %d pol %s: receiver temperature must be non-negative", feed, pol)
			}
		}
	}
	if c.NoiseDiode.MaxK <= 0 {
		return fmt.Errorf("noise diode maxK must be positive")
	}
	if c.AmbientLoadK <= 0 {
		return fmt.Errorf("ambient load temperature must be positive")
	}
	return nil
}
