package hardware

import "github.com/deepspace-ra/kband-frontend/internal/frontend/driver"

// Unavailable is an Adapter placeholder for deployments where the DAQ unit
// could not be discovered. Every call fails with a HardwareUnavailableError;
// nothing ever falls back to synthesized values.
type Unavailable struct{}

func (Unavailable) PulseDigitalLine(line int) error {
	return driver.NewHardwareUnavailableError("pulse digital line")
}

func (Unavailable) ReadAnalogInput(line int) (float64, error) {
	return 0, driver.NewHardwareUnavailableError("read analog input")
}

func (Unavailable) ReadDiscreteInput(line int) (bool, error) {
	return false, driver.NewHardwareUnavailableError("read discrete input")
}
