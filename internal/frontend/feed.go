package frontend

// AmbientLoad is the waveguide load attached behind a feed. The load either
// sits out of the signal path (the feed sees sky) or is inserted for
// calibration. Its physical temperature is fixed at construction.
type AmbientLoad struct {
	state FeedState
	tempK float64
}

func newAmbientLoad(tempK float64) *AmbientLoad {
	return &AmbientLoad{state: FeedSky, tempK: tempK}
}

// SetState moves the load in (FeedLoad) or out (FeedSky). The write is
// unconditional and idempotent.
func (l *AmbientLoad) SetState(state FeedState) {
	l.state = state
}

func (l *AmbientLoad) State() FeedState {
	return l.state
}

// TempK is the approximate physical temperature of the load.
func (l *AmbientLoad) TempK() float64 {
	return l.tempK
}

// Feed is one of the two horn and waveguide assemblies. Feed positions along
// the focus ring, and the display names derived from them, are fixed for the
// receiver's lifetime.
type Feed struct {
	number   int
	position float64 // inch, offset from the single-horn K position
	name     string

	load       *AmbientLoad
	channels   map[Polarization]*Channel
	preampBias bool
}

func newFeed(number int, cal *Calibration, nd *NoiseDiode, jitter JitterFunc) *Feed {
	f := &Feed{
		number:     number,
		position:   [3]float64{0, -0.012, +0.012}[number],
		name:       [3]string{"", "minus", "plus"}[number],
		load:       newAmbientLoad(cal.AmbientLoadK),
		preampBias: true,
	}
	f.channels = map[Polarization]*Channel{
		PolE: newChannel(f, PolE, cal, nd, jitter),
		PolH: newChannel(f, PolH, cal, nd, jitter),
	}
	return f
}

func (f *Feed) Number() int {
	return f.number
}

// Name is the legacy display name: "minus" for feed 1, "plus" for feed 2.
func (f *Feed) Name() string {
	return f.name
}

// PositionInch is the feed offset along the focus ring.
func (f *Feed) PositionInch() float64 {
	return f.position
}

func (f *Feed) Load() *AmbientLoad {
	return f.load
}

func (f *Feed) Channel(pol Polarization) *Channel {
	return f.channels[pol]
}

// SetPreampBias switches the cryogenic amplifier bias for both of the feed's
// polarization channels.
func (f *Feed) SetPreampBias(on bool) {
	f.preampBias = on
}

func (f *Feed) PreampBias() bool {
	return f.preampBias
}
