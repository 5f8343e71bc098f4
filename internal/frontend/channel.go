package frontend

// preampOffFloor is what a power meter reads with the amplifier bias off:
// nothing but insertion loss.
const preampOffFloor = 1e-10

// JitterFunc draws a sample uniform in [0, max). It models thermal and
// instrumental noise so that repeated reads under identical state differ
// slightly, the way real detectors do.
type JitterFunc func(max float64) float64

// Channel is one polarization output of a feed's orthomode transducer with
// its power detector. It holds read-only handles to the owning feed and the
// shared noise diode, both fixed at construction.
type Channel struct {
	feed   *Feed
	pol    Polarization
	mode   PowerMeterMode
	cal    ChannelCal
	sky    float64 // sky contribution excluding diode, K
	load   float64 // load contribution excluding diode, K
	diode  *NoiseDiode
	jitter JitterFunc
}

func newChannel(feed *Feed, pol Polarization, cal *Calibration, nd *NoiseDiode, jitter JitterFunc) *Channel {
	return &Channel{
		feed:   feed,
		pol:    pol,
		mode:   ModeWatts,
		cal:    cal.Channels[feed.number][pol],
		sky:    cal.SkyTempK(feed.number, pol),
		load:   cal.LoadTempK(feed.number, pol),
		diode:  nd,
		jitter: jitter,
	}
}

func (c *Channel) Polarization() Polarization {
	return c.pol
}

// SetMeterMode selects the reporting units for the channel's power meter.
// The computed physical reading never changes with the mode.
func (c *Channel) SetMeterMode(mode PowerMeterMode) {
	c.mode = mode
}

func (c *Channel) MeterMode() PowerMeterMode {
	return c.mode
}

// ReadPowerMeter synthesizes the channel's power meter reading in watts from
// the current receiver state.
//
// The operating temperature is the load or sky brightness plus receiver
// noise, a small uniform jitter, and the diode temperature when the noise
// diode is on. Dividing by the channel's system gain factor gives the meter
// reading. On sky this comes to roughly 50 nW-scale values, about 50 K of
// system temperature.
func (c *Channel) ReadPowerMeter() float64 {
	if !c.feed.PreampBias() {
		return preampOffFloor
	}

	var tOp float64
	if c.feed.Load().State() == FeedLoad {
		tOp = c.load + c.jitter(0.1)
	} else {
		tOp = c.sky + c.jitter(0.5)
	}
	if c.diode.State() {
		tOp += c.diode.TempK()
	}
	return tOp / c.cal.TsysFactor
}
