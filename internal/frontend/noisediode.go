package frontend

import (
	"math"

	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

// GainFunc maps an attenuation setting in dB to a power gain in (0, 1].
type GainFunc func(dB float64) float64

// attenGain is the PIN diode attenuator transfer curve: unity at 0 dB,
// vanishing as the attenuation grows.
func attenGain(dB float64) float64 {
	return math.Pow(10, dB/10)
}

// Attenuator is the PIN diode attenuator on the noise diode output. Changing
// the attenuation immediately recomputes the diode's injected temperature.
type Attenuator struct {
	diode *NoiseDiode
	dB    float64

	// ctrlFit maps a target diode temperature to control voltage,
	// polynomial coefficients highest power first.
	ctrlFit []float64
}

// SetAttenuation stores the setting and updates the owning diode's injected
// temperature.
func (a *Attenuator) SetAttenuation(dB float64) {
	a.dB = dB
	a.diode.recompute()
}

func (a *Attenuator) Attenuation() float64 {
	return a.dB
}

// CtrlVoltage returns the attenuator control voltage that produces the target
// injected temperature. The mapping is a fixed-degree polynomial fit over
// measured data, supplied as calibration.
func (a *Attenuator) CtrlVoltage(targetK float64) (float64, error) {
	if len(a.ctrlFit) == 0 {
		return 0, driver.NewCalibrationInputError("no control voltage fit configured")
	}
	if math.IsNaN(targetK) || math.IsInf(targetK, 0) || targetK < 0 {
		return 0, driver.NewCalibrationInputError("invalid target temperature %v K", targetK)
	}
	return polyval(a.ctrlFit, targetK), nil
}

// polyval evaluates a polynomial with coefficients ordered highest power
// first, as produced by the offline fitting scripts.
func polyval(coefs []float64, x float64) float64 {
	var v float64
	for _, c := range coefs {
		v = v*x + c
	}
	return v
}

// NoiseDiode is the single broadband noise source injected into all four
// channels through a four-way splitter. Its injected temperature is the
// unattenuated diode temperature scaled by the attenuator gain.
type NoiseDiode struct {
	on    bool
	maxK  float64
	tempK float64
	gain  GainFunc
	atten *Attenuator
}

func newNoiseDiode(cal NoiseDiodeCal) *NoiseDiode {
	nd := &NoiseDiode{maxK: cal.MaxK, gain: attenGain}
	nd.atten = &Attenuator{diode: nd, dB: cal.AttenuationDB, ctrlFit: cal.CtrlVoltageFit}
	nd.recompute()
	return nd
}

// SetState switches the diode on or off. The attenuation setting is not
// affected.
func (nd *NoiseDiode) SetState(on bool) {
	nd.on = on
}

func (nd *NoiseDiode) State() bool {
	return nd.on
}

// TempK is the currently injected diode temperature. It tracks the
// attenuator setting, not the on/off state.
func (nd *NoiseDiode) TempK() float64 {
	return nd.tempK
}

func (nd *NoiseDiode) Attenuator() *Attenuator {
	return nd.atten
}

func (nd *NoiseDiode) recompute() {
	nd.tempK = nd.maxK * nd.gain(nd.atten.dB)
}
