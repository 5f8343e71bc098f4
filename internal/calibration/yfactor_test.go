package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

func TestYFactors(t *testing.T) {
	fe := newTestFrontEnd(t)
	cal := fe.Calibration()

	factors, err := YFactors(fe, 2)
	if err != nil {
		t.Fatalf("YFactors failed: %v", err)
	}
	if len(factors) != 4 {
		t.Fatalf("got %d factors, want 4", len(factors))
	}

	// with zero jitter the Y-factor is fixed by the configured temperatures
	channels := []struct {
		feed int
		pol  frontend.Polarization
	}{
		{1, frontend.PolE},
		{1, frontend.PolH},
		{2, frontend.PolE},
		{2, frontend.PolH},
	}
	for i, ch := range channels {
		want := 10 * math.Log10(cal.LoadTempK(ch.feed, ch.pol)/cal.SkyTempK(ch.feed, ch.pol))
		if got := factors[i+1]; math.Abs(got-want) > 1e-9 {
			t.Errorf("channel %d: Y-factor %v dB, want %v dB", i+1, got, want)
		}
	}
}

func TestYFactorsRestoreState(t *testing.T) {
	fe := newTestFrontEnd(t)

	if err := fe.SetNoiseDiodeState(true); err != nil {
		t.Fatalf("SetNoiseDiodeState failed: %v", err)
	}
	if err := fe.SetFeedState(2, frontend.FeedLoad); err != nil {
		t.Fatalf("SetFeedState failed: %v", err)
	}

	if _, err := YFactors(fe, 1); err != nil {
		t.Fatalf("YFactors failed: %v", err)
	}

	if !fe.NoiseDiodeState() {
		t.Error("noise diode not restored to on")
	}
	if state, _ := fe.FeedState(2); state != frontend.FeedLoad {
		t.Errorf("feed 2 restored to %s, want %s", state, frontend.FeedLoad)
	}
}

func TestTrecFromLN2(t *testing.T) {
	// invert the estimate: an ideal receiver at 25 K against a 320 K load
	// and an LN2-cooled input produces this Y-factor
	const (
		trxK   = 25.0
		tloadK = 320.0
	)
	r := (tloadK + trxK) / (TempLN2K + trxK)
	ydB := 10 * math.Log10(r)

	trec, err := TrecFromLN2(map[int]float64{1: ydB, 3: ydB}, tloadK, tloadK)
	if err != nil {
		t.Fatalf("TrecFromLN2 failed: %v", err)
	}
	for _, ch := range []int{1, 3} {
		if got := trec[ch]; math.Abs(got-trxK) > 1e-9 {
			t.Errorf("channel %d: got %v K, want %v K", ch, got, trxK)
		}
	}
}

func TestTrecFromLN2Errors(t *testing.T) {
	var calErr *driver.CalibrationInputError

	if _, err := TrecFromLN2(nil, 320, 320); !errors.As(err, &calErr) {
		t.Errorf("expected CalibrationInputError for empty factors, got %v", err)
	}
	if _, err := TrecFromLN2(map[int]float64{1: 0}, 320, 320); !errors.As(err, &calErr) {
		t.Errorf("expected CalibrationInputError for unity Y-factor, got %v", err)
	}
	if _, err := TrecFromLN2(map[int]float64{1: -3}, 320, 320); !errors.As(err, &calErr) {
		t.Errorf("expected CalibrationInputError for negative Y-factor, got %v", err)
	}
}
