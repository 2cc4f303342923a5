package usbrf

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/pkg/term"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Host link (HL): a framed message transport over the USB
 *		CDC-ACM serial endpoint (§2.4, §6). Opens the endpoint the
 *		way the teacher's serial_port_open does (src/serial_port.go),
 *		and frames messages the way src/kiss_frame.go frames KISS —
 *		a start-of-frame byte, an escaped body, an end-of-frame byte
 *		— since spec.md explicitly leaves byte-level framing outside
 *		its scope and only specifies the message set (§6).
 *
 *------------------------------------------------------------------*/

const (
	hlFEND = 0xC0
	hlFESC = 0xDB
	hlTFEND = 0xDC
	hlTFESC = 0xDD
)

// Message ids (§6).
const (
	MsgReqInfo   byte = 0x01
	MsgInfo      byte = 0x02
	MsgProtExec  byte = 0x03
	MsgRcData    byte = 0x04
	MsgRecvData  byte = 0x05
)

// HostLink frames messages over a byte-stream serial endpoint and
// dispatches PROT_EXEC/RC_DATA/REQ_INFO to registered handlers (§2.4).
type HostLink struct {
	rw io.ReadWriter
	tt *term.Term // non-nil only when opened against a real serial device

	mu        sync.Mutex
	rxBuf     []byte
	inFrame   bool
	escaping  bool

	dispatcher *Dispatcher
	rcBuf      *RcChannelBuffer
	onReqInfo  func()

	writeMu sync.Mutex
}

// OpenHostLink opens the named serial device at the given baud rate, the
// way serial_port_open opens the TNC's control TTY.
func OpenHostLink(device string, baud int) (*HostLink, error) {
	t, err := term.Open(device, term.RawMode)
	if err != nil {
		return nil, err
	}
	if baud != 0 {
		t.SetSpeed(baud)
	}
	return &HostLink{rw: t, tt: t}, nil
}

// NewHostLinkOverStream wraps an arbitrary byte stream (e.g. a pty pair in
// tests, or a TCP connection in hostlink_net.go) as a HostLink.
func NewHostLinkOverStream(rw io.ReadWriter) *HostLink {
	return &HostLink{rw: rw}
}

// AttachDispatcher wires PROT_EXEC messages to the given dispatcher
// (RC_DATA goes through AttachRcBuffer).
func (h *HostLink) AttachDispatcher(d *Dispatcher) {
	h.dispatcher = d
}

// AttachRcBuffer wires RC_DATA messages into the given channel buffer.
func (h *HostLink) AttachRcBuffer(b *RcChannelBuffer) {
	h.rcBuf = b
}

// OnReqInfo registers the REQ_INFO handler (deviceinfo.go wires this to
// send an INFO reply).
func (h *HostLink) OnReqInfo(cb func()) {
	h.onReqInfo = cb
}

// Close releases the underlying serial device, if one was opened.
func (h *HostLink) Close() error {
	if h.tt != nil {
		return h.tt.Close()
	}
	return nil
}

// --- Framing -------------------------------------------------------------

// encodeFrame wraps payload in FEND/FESC framing.
func encodeFrame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+4)
	out = append(out, hlFEND)
	for _, b := range payload {
		switch b {
		case hlFEND:
			out = append(out, hlFESC, hlTFEND)
		case hlFESC:
			out = append(out, hlFESC, hlTFESC)
		default:
			out = append(out, b)
		}
	}
	out = append(out, hlFEND)
	return out
}

// Pump reads whatever bytes are currently available from the underlying
// stream, unescapes and reframes them, and dispatches complete messages.
// Called once per main-loop iteration (§5 "host-link byte pump").
func (h *HostLink) Pump() {
	buf := make([]byte, 256)
	n, err := h.rw.Read(buf)
	if err != nil || n == 0 {
		return
	}
	for _, b := range buf[:n] {
		h.feed(b)
	}
}

func (h *HostLink) feed(b byte) {
	h.mu.Lock()
	switch {
	case b == hlFEND:
		frame := h.rxBuf
		h.rxBuf = nil
		h.inFrame = true
		h.escaping = false
		h.mu.Unlock()
		if len(frame) > 0 {
			h.dispatch(frame)
		}
		return
	case h.escaping:
		switch b {
		case hlTFEND:
			h.rxBuf = append(h.rxBuf, hlFEND)
		case hlTFESC:
			h.rxBuf = append(h.rxBuf, hlFESC)
		}
		h.escaping = false
	case b == hlFESC:
		h.escaping = true
	default:
		h.rxBuf = append(h.rxBuf, b)
	}
	h.mu.Unlock()
}

// --- Message dispatch (§6) ----------------------------------------------

func (h *HostLink) dispatch(frame []byte) {
	if len(frame) < 1 {
		return
	}
	switch frame[0] {
	case MsgReqInfo:
		if h.onReqInfo != nil {
			h.onReqInfo()
		}
	case MsgProtExec:
		h.dispatchProtExec(frame[1:])
	case MsgRcData:
		h.dispatchRcData(frame[1:])
	}
}

// dispatchProtExec parses PROT_EXEC's fields (§6) and forwards to the
// dispatcher's Exec.
//
// Layout: id:i8, type:u8, arg_offset:u16 (LE), arg_size:u16 (LE), arg_data.
func (h *HostLink) dispatchProtExec(body []byte) {
	if h.dispatcher == nil || len(body) < 6 {
		return
	}
	id := int(int8(body[0]))
	t := ExecType(body[1])
	argOffset := int(binary.LittleEndian.Uint16(body[2:4]))
	argSize := int(binary.LittleEndian.Uint16(body[4:6]))
	data := body[6:]
	if len(data) > argSize {
		data = data[:argSize]
	}

	// arg_size in the wire message is the size of THIS chunk; the total
	// length being reassembled across chunks is argOffset+len(data) when
	// this is the final chunk, signaled by the caller via argSize ==
	// len(data) and no further chunks following. Since spec.md's exec()
	// contract takes an explicit arg-total-len, and the wire format here
	// only carries a per-chunk size, treat argOffset+argSize as the
	// running total-so-far; a single, unchunked PROT_EXEC (the common
	// case) has argOffset=0 and argSize=len(data), so total == len(data)
	// and start fires immediately.
	total := argOffset + argSize
	h.dispatcher.Exec(id, t, data, argOffset, total)
}

// dispatchRcData parses RC_DATA's channels:u16[<=16] (LE) into the
// attached RcChannelBuffer.
func (h *HostLink) dispatchRcData(body []byte) {
	if h.rcBuf == nil {
		return
	}
	n := len(body) / 2
	if n > MaxRCChannels {
		n = MaxRCChannels
	}
	values := make([]uint16, n)
	for i := 0; i < n; i++ {
		values[i] = binary.LittleEndian.Uint16(body[i*2 : i*2+2])
	}
	h.rcBuf.SetChannels(values)
}

// --- Outgoing messages ---------------------------------------------------

func (h *HostLink) writeFrame(payload []byte) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	_, err := h.rw.Write(encodeFrame(payload))
	return err
}

// SendInfo sends the INFO reply to a REQ_INFO message (§6, deviceinfo.go).
func (h *HostLink) SendInfo(board, swVersion uint32, hwID [3]uint32) error {
	buf := make([]byte, 1+4+4+12)
	buf[0] = MsgInfo
	binary.LittleEndian.PutUint32(buf[1:5], board)
	binary.LittleEndian.PutUint32(buf[5:9], swVersion)
	for i, v := range hwID {
		binary.LittleEndian.PutUint32(buf[9+i*4:13+i*4], v)
	}
	return h.writeFrame(buf)
}

// SendRecvData forwards a received frame to the host, tagged with the
// originating chip (§6 RECV_DATA).
func (h *HostLink) SendRecvData(chipID byte, data []byte) error {
	buf := make([]byte, 0, 2+len(data))
	buf = append(buf, MsgRecvData, chipID)
	buf = append(buf, data...)
	return h.writeFrame(buf)
}

// SendProtExec sends a PROT_EXEC message selecting and exec'ing the given
// protocol (§6), for use by a control CLI driving the device end.
func (h *HostLink) SendProtExec(protID int8, t ExecType, arg []byte) error {
	buf := make([]byte, 0, 1+1+1+2+2+len(arg))
	buf = append(buf, MsgProtExec, byte(protID), byte(t))
	offset := make([]byte, 2)
	binary.LittleEndian.PutUint16(offset, 0)
	buf = append(buf, offset...)
	size := make([]byte, 2)
	binary.LittleEndian.PutUint16(size, uint16(len(arg)))
	buf = append(buf, size...)
	buf = append(buf, arg...)
	return h.writeFrame(buf)
}

// SendRcData sends an RC_DATA message carrying the given channel values
// (§6 RC_DATA), for use by a control CLI driving the device end.
func (h *HostLink) SendRcData(channels []uint16) error {
	buf := make([]byte, 0, 1+2*len(channels))
	buf = append(buf, MsgRcData)
	for _, v := range channels {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, v)
		buf = append(buf, b...)
	}
	return h.writeFrame(buf)
}
