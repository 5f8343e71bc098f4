package calibration

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

// DefaultReads is how many meter samples are averaged per receiver state.
const DefaultReads = 5

// AcquireMinical steps the receiver through the four calibration states
// (sky, sky with noise diode, load, load with noise diode), averages reads
// power meter samples per state for every channel, and attaches the ambient
// load physical temperatures. The prior feed and diode states are restored
// before returning.
func AcquireMinical(fe *frontend.FrontEnd, reads int) (*Dataset, error) {
	if reads <= 0 {
		reads = DefaultReads
	}

	prior, err := receiverState(fe)
	if err != nil {
		return nil, err
	}
	defer prior.restore(fe)

	// feed state, diode state, in acquisition order
	states := []struct {
		feeds frontend.FeedState
		diode bool
	}{
		{frontend.FeedSky, false},
		{frontend.FeedSky, true},
		{frontend.FeedLoad, false},
		{frontend.FeedLoad, true},
	}

	means := make([][4]float64, len(states)) // per state, per channel
	for i, st := range states {
		for _, feed := range []int{1, 2} {
			if err := fe.SetFeedState(feed, st.feeds); err != nil {
				return nil, fmt.Errorf("minical: setting feed %d to %s: %w", feed, st.feeds, err)
			}
		}
		if err := fe.SetNoiseDiodeState(st.diode); err != nil {
			return nil, fmt.Errorf("minical: setting noise diode: %w", err)
		}

		samples := make([][]float64, 4)
		for range reads {
			readings, err := fe.ReadPowerMeters()
			if err != nil {
				return nil, fmt.Errorf("minical: reading power meters: %w", err)
			}
			for _, r := range readings {
				samples[r.Index-1] = append(samples[r.Index-1], r.Value)
			}
		}
		for ch, s := range samples {
			means[i][ch] = stat.Mean(s, nil)
		}
	}

	temps, err := fe.ReadTemperatures()
	if err != nil {
		return nil, fmt.Errorf("minical: reading load temperatures: %w", err)
	}

	ds := Dataset{Taken: time.Now().UTC()}
	for _, feed := range []int{1, 2} {
		tload := temps["load1"]
		if feed == 2 {
			tload = temps["load2"]
		}
		for _, pol := range frontend.Polarizations {
			index := (feed-1)*2 + 1
			if pol == frontend.PolH {
				index++
			}
			ds.Channels = append(ds.Channels, ChannelData{
				Index:  index,
				Feed:   feed,
				Pol:    pol,
				Sky:    means[0][index-1],
				SkyND:  means[1][index-1],
				Load:   means[2][index-1],
				LoadND: means[3][index-1],
				TloadK: tload,
			})
		}
	}
	return &ds, nil
}

// Process reduces one channel's minical readings. skyK is the assumed sky
// brightness excluding the receiver contribution (cosmic background plus
// atmosphere plus spillover).
func Process(d ChannelData, skyK float64) (Results, error) {
	for _, v := range []float64{d.Sky, d.SkyND, d.Load, d.LoadND} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Results{}, driver.NewCalibrationInputError("channel %d: non-physical reading %v W", d.Index, v)
		}
	}
	if d.TloadK <= 0 {
		return Results{}, driver.NewCalibrationInputError("channel %d: non-physical load temperature %v K", d.Index, d.TloadK)
	}

	y := d.Load / d.Sky
	if y <= 1 {
		return Results{}, driver.NewCalibrationInputError("channel %d: load reading not above sky (Y=%v)", d.Index, y)
	}

	// Y-factor receiver temperature, then gain referenced to the load.
	tLinear := (d.TloadK - y*skyK) / (y - 1)
	gain := d.Load / (d.TloadK + tLinear)
	tnd := (d.LoadND - d.Load) / gain

	// The diode injects the same temperature on load and sky, so the ratio
	// of the two diode steps measures detector compression.
	nonLin := (d.LoadND - d.Load) / (d.SkyND - d.Sky)
	tQuadratic := tLinear * (1 + (nonLin-1)/2)

	return Results{
		Index:        d.Index,
		GainWPerK:    gain,
		TlinearK:     tLinear,
		TquadraticK:  tQuadratic,
		TndK:         tnd,
		NonLinearity: nonLin,
	}, nil
}

// ProcessAll reduces every channel of a dataset against the front end's
// calibration constants.
func ProcessAll(fe *frontend.FrontEnd, ds *Dataset) ([]Results, error) {
	cal := fe.Calibration()
	skyK := cal.CosmicBackgroundK + cal.AtmosphereK + cal.SpilloverK

	results := make([]Results, 0, len(ds.Channels))
	for _, ch := range ds.Channels {
		r, err := Process(ch, skyK)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

type savedState struct {
	feeds map[int]frontend.FeedState
	diode bool
}

func receiverState(fe *frontend.FrontEnd) (*savedState, error) {
	s := savedState{feeds: make(map[int]frontend.FeedState, 2), diode: fe.NoiseDiodeState()}
	for _, feed := range []int{1, 2} {
		state, err := fe.FeedState(feed)
		if err != nil {
			return nil, err
		}
		s.feeds[feed] = state
	}
	return &s, nil
}

func (s *savedState) restore(fe *frontend.FrontEnd) {
	for feed, state := range s.feeds {
		_ = fe.SetFeedState(feed, state)
	}
	_ = fe.SetNoiseDiodeState(s.diode)
}
