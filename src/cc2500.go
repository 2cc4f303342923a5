package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Concrete Radio driver for the FSK chip (CC2500-class),
 *		register map grounded on modules/cc2500.h's address enum
 *		and strobe commands.
 *
 *------------------------------------------------------------------*/

// CC2500 register addresses (modules/cc2500.h).
const (
	cc2500IOCFG2  = 0x00
	cc2500CHANNR  = 0x0A
	cc2500FSCTRL1 = 0x0B
	cc2500FSCTRL0 = 0x0C
	cc2500FREQ2   = 0x0D
	cc2500FREQ1   = 0x0E
	cc2500FREQ0   = 0x0F
	cc2500MCSM1   = 0x17
	cc2500MCSM0   = 0x18
	cc2500FSCAL3  = 0x23
	cc2500FSCAL2  = 0x24
	cc2500FSCAL1  = 0x25

	cc2500MARCSTATE = 0x35
	cc2500RXBYTES   = 0x3B
	cc2500TXFIFO    = 0x3F
	cc2500RXFIFO    = 0x3F

	// Strobe commands.
	cc2500SRES  = 0x30
	cc2500SCAL  = 0x33
	cc2500SRX   = 0x34
	cc2500STX   = 0x35
	cc2500SIDLE = 0x36
	cc2500SFRX  = 0x3A
	cc2500SFTX  = 0x3B

	cc2500StateIdle = 0x00
)

// CC2500 drives the FSK chip over an SPIBus.
type CC2500 struct {
	busMutex
	bus SPIBus

	mode Mode

	recvCB func(RadioEvent)
	sendCB func(RadioEvent)

	lastCRCOK bool
}

// NewCC2500 constructs a driver bound to the given SPI bus.
func NewCC2500(bus SPIBus) *CC2500 {
	return &CC2500{bus: bus}
}

func (c *CC2500) strobe(cmd byte) (status byte, err error) {
	g := c.guard()
	defer g.Release()
	rx, err := c.bus.Tx([]byte{cmd})
	if err != nil || len(rx) < 1 {
		return 0, err
	}
	return rx[0], nil
}

func (c *CC2500) writeReg(addr, value byte) error {
	g := c.guard()
	defer g.Release()
	_, err := c.bus.Tx([]byte{addr, value})
	return err
}

func (c *CC2500) readReg(addr byte) (byte, error) {
	g := c.guard()
	defer g.Release()
	rx, err := c.bus.Tx([]byte{0x80 | addr, 0x00})
	if err != nil || len(rx) < 2 {
		return 0, err
	}
	return rx[1], nil
}

// Reset strobes SRES, the chip's software reset.
func (c *CC2500) Reset() error {
	_, err := c.strobe(cc2500SRES)
	return err
}

// ManufacturerID has no CC2500 equivalent of a vendor id register; the
// part number/version registers (not modeled here, §1 Non-goal: specific
// silicon register bit patterns) would serve the same bringup check on
// real hardware.
func (c *CC2500) ManufacturerID() (uint16, error) {
	return 0, nil
}

// SetMode strobes idle, receive or transmit.
func (c *CC2500) SetMode(m Mode) error {
	c.mode = m
	switch m {
	case ModeRX:
		_, err := c.strobe(cc2500SRX)
		return err
	case ModeTX:
		_, err := c.strobe(cc2500STX)
		return err
	default:
		_, err := c.strobe(cc2500SIDLE)
		return err
	}
}

// SetChannel programs CHANNR.
func (c *CC2500) SetChannel(channel byte) error {
	return c.writeReg(cc2500CHANNR, channel)
}

// Program writes the FrSky per-hop parameters: fscal1/2/3 and channel
// (§4.5 "the receiver only writes {fscal1[i], fscal2, fscal3, channel} per
// hop"), and FSCTRL0 when a trim value is supplied.
func (c *CC2500) Program(p RFParams) error {
	if err := c.SetChannel(p.Channel); err != nil {
		return err
	}
	if err := c.writeReg(cc2500FSCAL1, p.FSCal1); err != nil {
		return err
	}
	if err := c.writeReg(cc2500FSCAL2, p.FSCal2); err != nil {
		return err
	}
	if err := c.writeReg(cc2500FSCAL3, p.FSCal3); err != nil {
		return err
	}
	return c.writeReg(cc2500FSCTRL0, byte(p.FSCtrl0))
}

// StartReceive strobes SRX.
func (c *CC2500) StartReceive() error {
	_, err := c.strobe(cc2500SRX)
	return err
}

// AbortReceive strobes idle then flushes the RX FIFO (§5 cancellation).
func (c *CC2500) AbortReceive() error {
	if _, err := c.strobe(cc2500SIDLE); err != nil {
		return err
	}
	_, err := c.strobe(cc2500SFRX)
	return err
}

// Send writes the TX FIFO and strobes transmit.
func (c *CC2500) Send(buf []byte) error {
	if err := func() error {
		g := c.guard()
		defer g.Release()
		_, err := c.bus.Tx(append([]byte{0x40 | cc2500TXFIFO}, buf...))
		return err
	}(); err != nil {
		return err
	}
	_, err := c.strobe(cc2500STX)
	return err
}

// ReadPayload drains the RX FIFO.
func (c *CC2500) ReadPayload(length int) ([]byte, error) {
	g := c.guard()
	defer g.Release()
	rx, err := c.bus.Tx(append([]byte{0xC0 | cc2500RXFIFO}, make([]byte, length)...))
	if err != nil || len(rx) < 1+length {
		return nil, err
	}
	return rx[1 : 1+length], nil
}

// CRCOK reports the chip's "CRC OK" status bit (§4.5, the outer CC2500
// status-byte CRC bit, 0x80, distinct from the inner FrskyX polynomial
// CRC validated in frsky.go).
func (c *CC2500) CRCOK() bool {
	return c.lastCRCOK
}

// OnRecvReady registers the receive-complete callback.
func (c *CC2500) OnRecvReady(cb func(RadioEvent)) { c.recvCB = cb }

// OnSendDone registers the transmit-complete callback.
func (c *CC2500) OnSendDone(cb func(RadioEvent)) { c.sendCB = cb }

// Calibrate strobes SCAL on the currently programmed channel and polls
// MARCSTATE until it returns to idle, then reads back fscal1 (§4.5
// "Per-hop calibration").
func (c *CC2500) Calibrate() (byte, error) {
	if _, err := c.strobe(cc2500SIDLE); err != nil {
		return 0, err
	}
	if _, err := c.strobe(cc2500SCAL); err != nil {
		return 0, err
	}
	for {
		state, err := c.readReg(cc2500MARCSTATE)
		if err != nil {
			return 0, err
		}
		if state&0x1F == cc2500StateIdle {
			break
		}
	}
	return c.readReg(cc2500FSCAL1)
}

// deliverRecv/deliverSend are called by a polled-status probe.

func (c *CC2500) deliverRecv(length int, crcOK bool) {
	c.lastCRCOK = crcOK
	if c.recvCB != nil {
		c.recvCB(RadioEvent{Kind: EventRecvReady, Length: length, Error: !crcOK})
	}
}

func (c *CC2500) deliverSend(err bool) {
	if c.sendCB != nil {
		c.sendCB(RadioEvent{Kind: EventSendDone, Error: err})
	}
}

// PollStatus inspects RXBYTES and the outer CRC-OK status bit, raising the
// receive callback when a frame is available.
func (c *CC2500) PollStatus() error {
	rxBytes, err := c.readReg(cc2500RXBYTES)
	if err != nil {
		return err
	}
	length := int(rxBytes & 0x7F)
	if length == 0 {
		return nil
	}
	status, err := c.readReg(0x80 | cc2500RXBYTES)
	if err != nil {
		return err
	}
	crcOK := status&0x80 != 0
	c.deliverRecv(length, crcOK)
	return nil
}
