package frontend

import (
	"math"
	"testing"
)

func TestAttenuatorMonotonic(t *testing.T) {
	nd := newNoiseDiode(DefaultCalibration().NoiseDiode)
	atten := nd.Attenuator()

	prev := -1.0
	for _, dB := range []float64{-30, -20, -9.86, -5, -1, 0} {
		atten.SetAttenuation(dB)
		if temp := nd.TempK(); temp <= prev {
			t.Errorf("attenuation %v dB: temperature %v K not above %v K", dB, temp, prev)
		} else {
			prev = temp
		}
	}
}

func TestAttenuationSetsTemp(t *testing.T) {
	nd := newNoiseDiode(DefaultCalibration().NoiseDiode)

	// default -9.86 dB pad brings the 384.6 K diode down to about 39.7 K
	if temp := nd.TempK(); math.Abs(temp-39.72) > 0.1 {
		t.Errorf("default attenuation: got %v K, want about 39.7 K", temp)
	}

	nd.Attenuator().SetAttenuation(0)
	if temp := nd.TempK(); math.Abs(temp-384.6) > 1e-9 {
		t.Errorf("0 dB: got %v K, want 384.6 K", temp)
	}

	if got := nd.Attenuator().Attenuation(); got != 0 {
		t.Errorf("Attenuation: got %v, want 0", got)
	}
}

func TestDiodeToggleKeepsAttenuation(t *testing.T) {
	nd := newNoiseDiode(DefaultCalibration().NoiseDiode)
	nd.Attenuator().SetAttenuation(-3)
	want := nd.TempK()

	nd.SetState(true)
	nd.SetState(false)

	if got := nd.TempK(); got != want {
		t.Errorf("temperature changed across toggle: %v != %v", got, want)
	}
	if got := nd.Attenuator().Attenuation(); got != -3 {
		t.Errorf("attenuation changed across toggle: got %v, want -3", got)
	}
}

func TestCtrlVoltage(t *testing.T) {
	cal := DefaultCalibration().NoiseDiode
	cal.CtrlVoltageFit = []float64{2, 1} // v = 2k + 1
	nd := newNoiseDiode(cal)

	v, err := nd.Attenuator().CtrlVoltage(10)
	if err != nil {
		t.Fatalf("CtrlVoltage failed: %v", err)
	}
	if math.Abs(v-21) > 1e-12 {
		t.Errorf("CtrlVoltage(10): got %v, want 21", v)
	}
}

func TestCtrlVoltageDefaultFit(t *testing.T) {
	nd := newNoiseDiode(DefaultCalibration().NoiseDiode)

	// constant term of the factory fit
	v, err := nd.Attenuator().CtrlVoltage(0)
	if err != nil {
		t.Fatalf("CtrlVoltage failed: %v", err)
	}
	if math.Abs(v-1.52678586) > 1e-8 {
		t.Errorf("CtrlVoltage(0): got %v, want 1.52678586", v)
	}
}

func TestCtrlVoltageErrors(t *testing.T) {
	nd := newNoiseDiode(DefaultCalibration().NoiseDiode)

	if _, err := nd.Attenuator().CtrlVoltage(math.NaN()); err == nil {
		t.Error("expected error for NaN target")
	}
	if _, err := nd.Attenuator().CtrlVoltage(-5); err == nil {
		t.Error("expected error for negative target")
	}

	cal := DefaultCalibration().NoiseDiode
	cal.CtrlVoltageFit = nil
	nd = newNoiseDiode(cal)
	if _, err := nd.Attenuator().CtrlVoltage(10); err == nil {
		t.Error("expected error for missing fit")
	}
}

func TestPolyval(t *testing.T) {
	tests := []struct {
		coefs []float64
		x     float64
		want  float64
	}{
		{[]float64{1}, 5, 1},
		{[]float64{1, 0}, 5, 5},
		{[]float64{1, 2, 3}, 2, 11},
		{[]float64{2, -1, 0, 4}, 3, 49},
		{nil, 3, 0},
	}
	for _, tt := range tests {
		if got := polyval(tt.coefs, tt.x); got != tt.want {
			t.Errorf("polyval(%v, %v): got %v, want %v", tt.coefs, tt.x, got, tt.want)
		}
	}
}
