package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

// TempLN2K is the boiling point of liquid nitrogen assumed by the load/LN2
// receiver temperature estimate.
const TempLN2K = 77

// YFactors measures the Y-factor of every channel: the ratio of power with
// the ambient load in to power on the sky, in dB. The noise diode is left
// off throughout and the prior receiver state is restored.
func YFactors(fe *frontend.FrontEnd, reads int) (map[int]float64, error) {
	if reads <= 0 {
		reads = DefaultReads
	}

	prior, err := receiverState(fe)
	if err != nil {
		return nil, err
	}
	defer prior.restore(fe)

	if err := fe.SetNoiseDiodeState(false); err != nil {
		return nil, fmt.Errorf("y-factor: disabling noise diode: %w", err)
	}

	average := func(state frontend.FeedState) ([4]float64, error) {
		var out [4]float64
		for _, feed := range []int{1, 2} {
			if err := fe.SetFeedState(feed, state); err != nil {
				return out, fmt.Errorf("y-factor: setting feed %d to %s: %w", feed, state, err)
			}
		}
		samples := make([][]float64, 4)
		for range reads {
			readings, err := fe.ReadPowerMeters()
			if err != nil {
				return out, fmt.Errorf("y-factor: reading power meters: %w", err)
			}
			for _, r := range readings {
				samples[r.Index-1] = append(samples[r.Index-1], r.Value)
			}
		}
		for ch, s := range samples {
			out[ch] = stat.Mean(s, nil)
		}
		return out, nil
	}

	load, err := average(frontend.FeedLoad)
	if err != nil {
		return nil, err
	}
	sky, err := average(frontend.FeedSky)
	if err != nil {
		return nil, err
	}

	factors := make(map[int]float64, 4)
	for ch := range 4 {
		if sky[ch] <= 0 || load[ch] <= sky[ch] {
			return nil, driver.NewCalibrationInputError(
				"channel %d: load power %v W not above sky power %v W", ch+1, load[ch], sky[ch])
		}
		factors[ch+1] = 10 * math.Log10(load[ch]/sky[ch])
	}
	return factors, nil
}

// TrecFromLN2 estimates per-channel receiver temperatures from previously
// measured Y-factors, assuming the sky-side termination is replaced by a
// liquid nitrogen load. Channels 1 and 2 use the feed 1 load temperature,
// channels 3 and 4 the feed 2 load temperature.
func TrecFromLN2(factors map[int]float64, load1K, load2K float64) (map[int]float64, error) {
	if len(factors) == 0 {
		return nil, driver.NewCalibrationInputError("no Y-factors measured yet")
	}

	trec := make(map[int]float64, len(factors))
	for ch, ydB := range factors {
		tload := load1K
		if ch > 2 {
			tload = load2K
		}
		r := math.Pow(10, ydB/10)
		if r <= 1 {
			return nil, driver.NewCalibrationInputError("channel %d: Y-factor %v dB not above unity", ch, ydB)
		}
		trec[ch] = (tload - r*TempLN2K) / (r - 1)
	}
	return trec, nil
}
