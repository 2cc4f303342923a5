package usbrf

import "github.com/warthog618/go-gpiocdev"

/*------------------------------------------------------------------
 *
 * Purpose:	Bench button external collaborator, GPIO-backed, edge
 *		triggered. Used on the bring-up harness to trigger a bind
 *		or takeover attempt without a host-link message.
 *
 *------------------------------------------------------------------*/

// Button reports edge-triggered presses via a registered callback.
type Button interface {
	OnPress(func())
	Close() error
}

// GPIOButton watches a GPIO line for falling edges (active-low button to
// ground, the common wiring for a bench push-button).
type GPIOButton struct {
	line *gpiocdev.Line
	cb   func()
}

// NewGPIOButton opens the named line with an internal pull-up and a
// falling-edge watch.
func NewGPIOButton(chipName string, offset int) (*GPIOButton, error) {
	b := &GPIOButton{}
	line, err := gpiocdev.RequestLine(chipName, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(b.handle))
	if err != nil {
		return nil, err
	}
	b.line = line
	return b, nil
}

func (b *GPIOButton) handle(gpiocdev.LineEvent) {
	if b.cb != nil {
		b.cb()
	}
}

// OnPress registers the press callback.
func (b *GPIOButton) OnPress(cb func()) {
	b.cb = cb
}

// Close releases the GPIO line.
func (b *GPIOButton) Close() error {
	return b.line.Close()
}
