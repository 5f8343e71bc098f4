// Package protocol translates the legacy numeric option-code menu into
// typed operations against the front-end model. The numeric codes live only
// at this boundary; the model itself exposes named operations.
package protocol

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/deepspace-ra/kband-frontend/internal/calibration"
	"github.com/deepspace-ra/kband-frontend/internal/frontend"
	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

// Legacy option codes. From the historical menu-driven control program;
// only the codes still in use are listed.
const (
	OptCheckFeeds     = 12
	OptFeed1Sky       = 13
	OptFeed1Load      = 14
	OptFeed2Sky       = 15
	OptFeed2Load      = 16
	OptReadPMs        = 17
	OptYFactors       = 18
	OptNDState        = 22
	OptNDOn           = 23
	OptNDOff          = 24
	OptPreamp1On      = 25
	OptPreamp1Off     = 26
	OptPreamp2On      = 27
	OptPreamp2Off     = 28
	OptMinical        = 29
	OptReadTemps      = 31
	OptTrecLN2        = 32
	OptSigGenReset    = 54
	OptSigGenStatus   = 55
	OptSigGenRFOff    = 56
	OptSigGenRFOn     = 57
	OptSigGenSetFreq  = 58
	OptSigGenSetAmpl  = 59
	OptPMModeWattsMin = 390 // 390..393: channel encoded in the low digit
	OptPMModeDBMMin   = 400 // 400..403: channel encoded in the low digit
)

// channelOrder maps the low digit of the power-meter mode codes to the
// channel: 0 is feed 1 E, 1 is feed 1 H, 2 is feed 2 E, 3 is feed 2 H.
var channelOrder = [4]struct {
	feed int
	pol  frontend.Polarization
}{
	{1, frontend.PolE},
	{1, frontend.PolH},
	{2, frontend.PolE},
	{2, frontend.PolH},
}

type handlerFunc func(args []int) (Result, error)

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger *slog.Logger) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.logger = logger.With(slog.String("component", "dispatcher"))
	}
}

// WithMinicalReads sets how many meter samples calibration acquisitions
// average per receiver state.
func WithMinicalReads(reads int) func(*Dispatcher) {
	return func(d *Dispatcher) {
		d.minicalReads = reads
	}
}

// Dispatcher maps option codes onto front-end operations. It is a pure
// request/response mapping with no state machine; the only state it keeps is
// the Y-factor set remembered between options 18 and 32. It assumes a single
// caller at a time; the transport serializes concurrent clients.
type Dispatcher struct {
	fe           *frontend.FrontEnd
	logger       *slog.Logger
	minicalReads int

	yfactors map[int]float64

	handlers map[int]handlerFunc
}

// NewDispatcher builds the option table over the given front end.
func NewDispatcher(fe *frontend.FrontEnd, options ...func(*Dispatcher)) *Dispatcher {
	d := Dispatcher{
		fe:           fe,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		minicalReads: calibration.DefaultReads,
	}

	for _, option := range options {
		option(&d)
	}

	d.handlers = map[int]handlerFunc{
		OptCheckFeeds: d.checkFeeds,
		OptFeed1Sky:   d.setFeed(1, frontend.FeedSky),
		OptFeed1Load:  d.setFeed(1, frontend.FeedLoad),
		OptFeed2Sky:   d.setFeed(2, frontend.FeedSky),
		OptFeed2Load:  d.setFeed(2, frontend.FeedLoad),
		OptReadPMs:    d.readPowerMeters,
		OptYFactors:   d.yFactors,
		OptNDState:    d.noiseDiodeState,
		OptNDOn:       d.setNoiseDiode(true),
		OptNDOff:      d.setNoiseDiode(false),
		OptPreamp1On:  d.setPreampBias(1, true),
		OptPreamp1Off: d.setPreampBias(1, false),
		OptPreamp2On:  d.setPreampBias(2, true),
		OptPreamp2Off: d.setPreampBias(2, false),
		OptMinical:    d.minical,
		OptReadTemps:  d.readTemperatures,
		OptTrecLN2:    d.trecFromLN2,
	}
	for offset, ch := range channelOrder {
		d.handlers[OptPMModeWattsMin+offset] = d.setMeterMode(ch.feed, ch.pol, frontend.ModeWatts)
		d.handlers[OptPMModeDBMMin+offset] = d.setMeterMode(ch.feed, ch.pol, frontend.ModeDBM)
	}
	for _, code := range []int{OptSigGenReset, OptSigGenStatus, OptSigGenRFOff,
		OptSigGenRFOn, OptSigGenSetFreq, OptSigGenSetAmpl} {
		d.handlers[code] = d.signalGenerator(code)
	}

	return &d
}

// Dispatch runs one option code. Unknown codes fail with an
// UnrecognizedOptionError and mutate nothing.
func (d *Dispatcher) Dispatch(code int, args ...int) (Result, error) {
	h, ok := d.handlers[code]
	if !ok {
		err := driver.NewUnrecognizedOptionError(code)
		d.logger.Error(err.Error())
		return Result{}, err
	}

	result, err := h(args)
	if err != nil {
		d.logger.Error(fmt.Sprintf("option %d failed: %s", code, err.Error()))
		return Result{}, err
	}

	d.logger.Debug("option dispatched", slog.Int("code", code))
	return result, nil
}

func (d *Dispatcher) checkFeeds(_ []int) (Result, error) {
	var sb strings.Builder
	for _, feed := range []int{1, 2} {
		state, err := d.fe.FeedState(feed)
		if err != nil {
			return Result{}, err
		}
		fmt.Fprintf(&sb, "feed %d is on the %s\n", feed, state)
	}
	return Result{Kind: ResultText, Text: sb.String()}, nil
}

func (d *Dispatcher) setFeed(feed int, state frontend.FeedState) handlerFunc {
	return func(_ []int) (Result, error) {
		if err := d.fe.SetFeedState(feed, state); err != nil {
			return Result{}, err
		}
		return none()
	}
}

func (d *Dispatcher) readPowerMeters(_ []int) (Result, error) {
	readings, err := d.fe.ReadPowerMeters()
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultReadings, Readings: readings}, nil
}

func (d *Dispatcher) noiseDiodeState(_ []int) (Result, error) {
	return Result{Kind: ResultBool, Bool: d.fe.NoiseDiodeState()}, nil
}

func (d *Dispatcher) setNoiseDiode(on bool) handlerFunc {
	return func(_ []int) (Result, error) {
		if err := d.fe.SetNoiseDiodeState(on); err != nil {
			return Result{}, err
		}
		return none()
	}
}

func (d *Dispatcher) setPreampBias(feed int, on bool) handlerFunc {
	return func(_ []int) (Result, error) {
		if err := d.fe.SetPreampBias(feed, on); err != nil {
			return Result{}, err
		}
		return none()
	}
}

func (d *Dispatcher) setMeterMode(feed int, pol frontend.Polarization, mode frontend.PowerMeterMode) handlerFunc {
	return func(_ []int) (Result, error) {
		if err := d.fe.SetPowerMeterMode(feed, pol, mode); err != nil {
			return Result{}, err
		}
		return none()
	}
}

func (d *Dispatcher) readTemperatures(_ []int) (Result, error) {
	temps, err := d.fe.ReadTemperatures()
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultTemperatures, Temperatures: temps}, nil
}

func (d *Dispatcher) yFactors(_ []int) (Result, error) {
	factors, err := calibration.YFactors(d.fe, d.minicalReads)
	if err != nil {
		return Result{}, err
	}
	d.yfactors = factors
	return Result{Kind: ResultChannelMap, ChannelMap: factors}, nil
}

func (d *Dispatcher) minical(_ []int) (Result, error) {
	ds, err := calibration.AcquireMinical(d.fe, d.minicalReads)
	if err != nil {
		return Result{}, err
	}
	results, err := calibration.ProcessAll(d.fe, ds)
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultMinical, Minical: ds, MinicalResults: results}, nil
}

func (d *Dispatcher) trecFromLN2(_ []int) (Result, error) {
	if d.yfactors == nil {
		return Result{}, driver.NewCalibrationInputError("no Y-factors measured yet: run option %d first", OptYFactors)
	}
	temps, err := d.fe.ReadTemperatures()
	if err != nil {
		return Result{}, err
	}
	trec, err := calibration.TrecFromLN2(d.yfactors, temps["load1"], temps["load2"])
	if err != nil {
		return Result{}, err
	}
	return Result{Kind: ResultChannelMap, ChannelMap: trec}, nil
}

// signalGenerator covers the GPIB signal generator controls. The instrument
// only exists in hardware installations with a GPIB bridge attached, so in
// this controller the codes are accepted, argument-checked and reported as
// unavailable rather than unknown.
func (d *Dispatcher) signalGenerator(code int) handlerFunc {
	return func(args []int) (Result, error) {
		switch code {
		case OptSigGenSetFreq, OptSigGenSetAmpl:
			if len(args) < 1 {
				return Result{}, driver.NewCalibrationInputError("option %d requires a value argument", code)
			}
		}
		return Result{}, driver.NewHardwareUnavailableError(fmt.Sprintf("signal generator (option %d)", code))
	}
}
