// Package frontend models the K-band dual-feed, dual-polarization receiver
// front end: two feeds with waveguide calibration loads, an orthomode
// transducer per feed splitting E and H polarizations, one shared noise
// diode behind a four-way splitter, and switchable cryogenic preamp bias.
//
// The model either synthesizes all monitor points from closed-form
// radiometric physics (simulation, the default) or drives a DAQ adapter
// (hardware mode). The mode is fixed at construction and never changes
// implicitly mid-session.
package frontend

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
	"github.com/deepspace-ra/kband-frontend/internal/hardware"
)

// PowerReading is one power meter sample. Index runs 1..4 over
// (feed 1 E, feed 1 H, feed 2 E, feed 2 H); calibration code downstream
// correlates index to physical channel by this position.
type PowerReading struct {
	Index int
	Feed  int
	Pol   Polarization
	Value float64 // watts, regardless of the channel's reporting mode

	// Mode is the channel's reporting mode at the time of the read. Display
	// code converts Value through it; storage keeps watts.
	Mode PowerMeterMode
}

// WithLogger sets the logger for the front end.
func WithLogger(logger *slog.Logger) func(*FrontEnd) {
	return func(fe *FrontEnd) {
		fe.logger = logger.With(slog.String("component", "frontend"))
	}
}

// WithJitter replaces the simulated sensor noise source. Tests pass a
// deterministic function.
func WithJitter(jitter JitterFunc) func(*FrontEnd) {
	return func(fe *FrontEnd) {
		fe.jitter = jitter
	}
}

// WithHardware puts the front end in hardware mode, backed by the given DAQ
// adapter. Readings then come from the adapter instead of the simulation.
func WithHardware(adapter hardware.Adapter) func(*FrontEnd) {
	return func(fe *FrontEnd) {
		fe.hw = adapter
	}
}

// FrontEnd aggregates the receiver's two feeds and the shared noise diode
// and exposes the full monitor and control surface. It assumes single-writer
// access; the transport serializes concurrent callers.
type FrontEnd struct {
	feeds map[int]*Feed
	diode *NoiseDiode
	cal   Calibration

	hw     hardware.Adapter
	jitter JitterFunc
	logger *slog.Logger
}

// New builds a front end around the given calibration set. All entities are
// constructed once, with loads retracted, the noise diode off, preamps
// biased on and power meters in watts.
func New(cal Calibration, options ...func(*FrontEnd)) (*FrontEnd, error) {
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration: %w", err)
	}

	fe := FrontEnd{
		cal:    cal,
		jitter: func(max float64) float64 { return rand.Float64() * max },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&fe)
	}

	fe.diode = newNoiseDiode(cal.NoiseDiode)
	fe.feeds = map[int]*Feed{
		1: newFeed(1, &cal, fe.diode, fe.jitter),
		2: newFeed(2, &cal, fe.diode, fe.jitter),
	}

	return &fe, nil
}

// Simulated reports whether readings are synthesized rather than taken from
// hardware.
func (fe *FrontEnd) Simulated() bool {
	return fe.hw == nil
}

// Calibration returns the constants the front end was built around.
func (fe *FrontEnd) Calibration() Calibration {
	return fe.cal
}

// CenterFrequencyGHz is the receiver passband center.
func (fe *FrontEnd) CenterFrequencyGHz() float64 {
	return fe.cal.CenterFrequencyGHz
}

// BandwidthGHz is the receiver passband width.
func (fe *FrontEnd) BandwidthGHz() float64 {
	return fe.cal.BandwidthGHz
}

// Feed returns the named feed.
func (fe *FrontEnd) Feed(feed int) (*Feed, error) {
	f, ok := fe.feeds[feed]
	if !ok {
		return nil, driver.NewInvalidFeedError(feed)
	}
	return f, nil
}

// NoiseDiode returns the shared noise source.
func (fe *FrontEnd) NoiseDiode() *NoiseDiode {
	return fe.diode
}

// FeedState reports whether the named feed looks at the sky or at its
// ambient load.
func (fe *FrontEnd) FeedState(feed int) (FeedState, error) {
	f, err := fe.Feed(feed)
	if err != nil {
		return "", err
	}
	return f.Load().State(), nil
}

// SetFeedState moves the named feed's ambient load. Setting the state the
// feed is already in is a no-op.
func (fe *FrontEnd) SetFeedState(feed int, state FeedState) error {
	f, err := fe.Feed(feed)
	if err != nil {
		return err
	}
	if f.Load().State() == state {
		return nil
	}

	if fe.hw != nil {
		line := hardware.LineFeed1Load
		if feed == 2 {
			line = hardware.LineFeed2Load
		}
		if err := fe.hw.PulseDigitalLine(line); err != nil {
			return fmt.Errorf("switching feed %d load: %w", feed, err)
		}
	}

	f.Load().SetState(state)
	fe.logger.Debug("feed state changed", slog.Int("feed", feed), slog.String("state", state.String()))
	return nil
}

// SetFeedStateNamed accepts the legacy string forms "sky" and "load",
// ignoring case and whitespace.
func (fe *FrontEnd) SetFeedStateNamed(feed int, target string) error {
	state, err := ParseFeedState(target)
	if err != nil {
		return err
	}
	return fe.SetFeedState(feed, state)
}

// NoiseDiodeState reports whether the diode is firing into the channels.
func (fe *FrontEnd) NoiseDiodeState() bool {
	return fe.diode.State()
}

// SetNoiseDiodeState switches the shared noise diode.
func (fe *FrontEnd) SetNoiseDiodeState(on bool) error {
	if fe.hw != nil && fe.diode.State() != on {
		if err := fe.hw.PulseDigitalLine(hardware.LineNoiseDiode); err != nil {
			return fmt.Errorf("switching noise diode: %w", err)
		}
	}
	fe.diode.SetState(on)
	fe.logger.Debug("noise diode state changed", slog.Bool("on", on))
	return nil
}

// SetPreampBias switches the cryogenic amplifier bias for the named feed.
func (fe *FrontEnd) SetPreampBias(feed int, on bool) error {
	f, err := fe.Feed(feed)
	if err != nil {
		return err
	}
	if fe.hw != nil && f.PreampBias() != on {
		line := hardware.LinePreamp1Bias
		if feed == 2 {
			line = hardware.LinePreamp2Bias
		}
		if err := fe.hw.PulseDigitalLine(line); err != nil {
			return fmt.Errorf("switching feed %d preamp bias: %w", feed, err)
		}
	}
	f.SetPreampBias(on)
	fe.logger.Debug("preamp bias changed", slog.Int("feed", feed), slog.Bool("on", on))
	return nil
}

// SetPowerMeterMode selects the reporting units for one channel's meter.
func (fe *FrontEnd) SetPowerMeterMode(feed int, pol Polarization, mode PowerMeterMode) error {
	f, err := fe.Feed(feed)
	if err != nil {
		return err
	}
	if !validPolarization(pol) {
		return driver.NewInvalidPolarizationError(pol.String())
	}
	f.Channel(pol).SetMeterMode(mode)
	return nil
}

// ReadPowerMeter reads one channel's power meter in watts.
func (fe *FrontEnd) ReadPowerMeter(feed int, pol Polarization) (float64, error) {
	f, err := fe.Feed(feed)
	if err != nil {
		return 0, err
	}
	if !validPolarization(pol) {
		return 0, driver.NewInvalidPolarizationError(pol.String())
	}

	if fe.hw != nil {
		index := meterIndex(feed, pol)
		volts, err := fe.hw.ReadAnalogInput(hardware.PowerDetLine(index))
		if err != nil {
			return 0, fmt.Errorf("reading power meter %d: %w", index, err)
		}
		return volts * fe.cal.Channels[feed][pol].DetectorScale, nil
	}

	return f.Channel(pol).ReadPowerMeter(), nil
}

// ReadPowerMeters reads all four power meters in the fixed channel order
// feed 1 E, feed 1 H, feed 2 E, feed 2 H, with meter indices 1 through 4.
func (fe *FrontEnd) ReadPowerMeters() ([]PowerReading, error) {
	readings := make([]PowerReading, 0, 4)
	for _, feed := range []int{1, 2} {
		for _, pol := range Polarizations {
			value, err := fe.ReadPowerMeter(feed, pol)
			if err != nil {
				return nil, err
			}
			f := fe.feeds[feed]
			readings = append(readings, PowerReading{
				Index: meterIndex(feed, pol),
				Feed:  feed,
				Pol:   pol,
				Value: value,
				Mode:  f.Channel(pol).MeterMode(),
			})
		}
	}
	fe.logger.Debug("power meters read", slog.Any("readings", readings))
	return readings, nil
}

// TemperatureKeys lists the four front-end physical temperature monitor
// points.
var TemperatureKeys = []string{"load1", "load2", "12K", "70K"}

// ReadTemperatures reads the four front-end physical temperatures in kelvin:
// both ambient loads and the two cryostat stages.
func (fe *FrontEnd) ReadTemperatures() (map[string]float64, error) {
	if fe.hw != nil {
		temps := make(map[string]float64, 4)
		lines := map[string]int{
			"load1": hardware.AnalogLoad1Temp,
			"load2": hardware.AnalogLoad2Temp,
			"12K":   hardware.Analog12KStage,
			"70K":   hardware.Analog70KStage,
		}
		for key, line := range lines {
			volts, err := fe.hw.ReadAnalogInput(line)
			if err != nil {
				return nil, fmt.Errorf("reading %s sensor: %w", key, err)
			}
			temps[key] = volts * fe.cal.CryoSensorKPerV
		}
		return temps, nil
	}

	return map[string]float64{
		"load1": fe.feeds[1].Load().TempK(),
		"load2": fe.feeds[2].Load().TempK(),
		"12K":   15 + fe.jitter(0.01),
		"70K":   80 + fe.jitter(0.5),
	}, nil
}

// meterIndex maps a channel to its one-based legacy meter index.
func meterIndex(feed int, pol Polarization) int {
	index := (feed-1)*2 + 1
	if pol == PolH {
		index++
	}
	return index
}
