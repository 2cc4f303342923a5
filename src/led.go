package usbrf

import "github.com/warthog618/go-gpiocdev"

/*------------------------------------------------------------------
 *
 * Purpose:	Status LED external collaborator, GPIO-backed. Protocol
 *		modules use it to signal sync/takeover state to the bench
 *		operator the same way the original firmware toggled a board
 *		LED from protocol_*_run().
 *
 *------------------------------------------------------------------*/

// LED is an on/off status indicator.
type LED interface {
	Set(on bool) error
}

// GPIOLed drives a single GPIO line as an LED.
type GPIOLed struct {
	line *gpiocdev.Line
}

// NewGPIOLed opens the named line as an output, initially off.
func NewGPIOLed(chipName string, offset int) (*GPIOLed, error) {
	line, err := gpiocdev.RequestLine(chipName, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &GPIOLed{line: line}, nil
}

// Set drives the line high (on) or low (off).
func (l *GPIOLed) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return l.line.SetValue(v)
}

// Close releases the GPIO line.
func (l *GPIOLed) Close() error {
	return l.line.Close()
}
