// Package hardware defines the boundary between the front-end model and the
// physical monitor-and-control electronics. The receiver is wired to a
// LabJack-class DAQ unit: waveguide loads and the noise diode are switched by
// pulsing digital lines, cryostat sensors and power detectors are read on
// analog inputs. In simulation no adapter is connected and the model
// synthesizes every reading itself.
package hardware

// Digital and analog line assignments on the front-end DAQ unit.
const (
	LineFeed1Load   = 0 // pulse toggles feed 1 waveguide load
	LineFeed2Load   = 1 // pulse toggles feed 2 waveguide load
	LineNoiseDiode  = 2 // noise diode enable
	LinePreamp1Bias = 3 // feed 1 preamp bias enable
	LinePreamp2Bias = 4 // feed 2 preamp bias enable
	LinePhaseCal    = 5 // phase cal rail select

	AnalogLoad1Temp = 0 // feed 1 load physical temperature sensor
	AnalogLoad2Temp = 1 // feed 2 load physical temperature sensor
	Analog12KStage  = 2 // first cryostat stage sensor
	Analog70KStage  = 3 // second cryostat stage sensor

	// AnalogPowerDetBase is the first of four detector inputs, one per
	// channel in meter index order.
	AnalogPowerDetBase = 4
)

// PowerDetLine returns the analog input line of the power detector for a
// one-based meter index.
func PowerDetLine(index int) int {
	return AnalogPowerDetBase + index - 1
}

// Adapter is the capability the model uses to reach real electronics.
// Implementations must be safe for use from the single dispatcher goroutine;
// no internal serialization is required of them.
type Adapter interface {
	// PulseDigitalLine momentarily asserts a digital output line.
	PulseDigitalLine(line int) error

	// ReadAnalogInput returns the voltage on an analog input line.
	ReadAnalogInput(line int) (float64, error)

	// ReadDiscreteInput returns the state of a digital input line.
	ReadDiscreteInput(line int) (bool, error)
}
