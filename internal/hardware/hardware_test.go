package hardware

import (
	"errors"
	"testing"

	"github.com/deepspace-ra/kband-frontend/internal/frontend/driver"
)

func TestPowerDetLine(t *testing.T) {
	for index := 1; index <= 4; index++ {
		if got, want := PowerDetLine(index), AnalogPowerDetBase+index-1; got != want {
			t.Errorf("PowerDetLine(%d): got %d, want %d", index, got, want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	var adapter Adapter = Unavailable{}

	var hwErr *driver.HardwareUnavailableError
	if err := adapter.PulseDigitalLine(LineNoiseDiode); !errors.As(err, &hwErr) {
		t.Errorf("PulseDigitalLine: expected HardwareUnavailableError, got %v", err)
	}
	if _, err := adapter.ReadAnalogInput(AnalogLoad1Temp); !errors.As(err, &hwErr) {
		t.Errorf("ReadAnalogInput: expected HardwareUnavailableError, got %v", err)
	}
	if _, err := adapter.ReadDiscreteInput(LineFeed1Load); !errors.As(err, &hwErr) {
		t.Errorf("ReadDiscreteInput: expected HardwareUnavailableError, got %v", err)
	}
}
