package usbrf

import "github.com/warthog618/go-gpiocdev"

/*------------------------------------------------------------------
 *
 * Purpose:	Antenna multiplex (AM): switches a pair of RF-switch
 *		outputs so exactly one chip (DSSS or FSK) is connected to
 *		the antenna (§2.3).
 *
 *------------------------------------------------------------------*/

// Chip selects which radio chip owns the antenna.
type Chip int

const (
	ChipDSSS Chip = iota
	ChipFSK
)

// AntennaSwitch sets the antenna mux to favor one chip. Invariant: exactly
// one of the two outputs is ever active.
type AntennaSwitch interface {
	Select(Chip) error
}

// GPIOAntennaSwitch drives two complementary GPIO lines through gpiocdev,
// the way a real antenna mux's enable pins are wired.
type GPIOAntennaSwitch struct {
	dsssLine *gpiocdev.Line
	fskLine  *gpiocdev.Line
}

// NewGPIOAntennaSwitch opens the two mux-select lines on the named gpiochip.
func NewGPIOAntennaSwitch(chipName string, dsssOffset, fskOffset int) (*GPIOAntennaSwitch, error) {
	dsss, err := gpiocdev.RequestLine(chipName, dsssOffset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	fsk, err := gpiocdev.RequestLine(chipName, fskOffset, gpiocdev.AsOutput(0))
	if err != nil {
		dsss.Close()
		return nil, err
	}
	return &GPIOAntennaSwitch{dsssLine: dsss, fskLine: fsk}, nil
}

// Select asserts the selected chip's line and deasserts the other's.
func (a *GPIOAntennaSwitch) Select(c Chip) error {
	switch c {
	case ChipDSSS:
		if err := a.fskLine.SetValue(0); err != nil {
			return err
		}
		return a.dsssLine.SetValue(1)
	case ChipFSK:
		if err := a.dsssLine.SetValue(0); err != nil {
			return err
		}
		return a.fskLine.SetValue(1)
	}
	return nil
}

// Close releases both GPIO lines.
func (a *GPIOAntennaSwitch) Close() error {
	err1 := a.dsssLine.Close()
	err2 := a.fskLine.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
