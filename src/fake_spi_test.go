package usbrf

// fakeSPIBus is a minimal SPIBus double. Responses are queued per opcode
// byte (tx[0], exactly as the driver under test sends it, mask bits and
// all) so a test can script a sequence of distinct replies to the same
// register without the fake needing to understand either chip's
// read/write bit convention.
type fakeSPIBus struct {
	calls [][]byte
	queue map[byte][][]byte
	err   error
}

func newFakeSPIBus() *fakeSPIBus {
	return &fakeSPIBus{queue: make(map[byte][][]byte)}
}

func (f *fakeSPIBus) enqueue(opcode byte, rx ...byte) {
	f.queue[opcode] = append(f.queue[opcode], append([]byte(nil), rx...))
}

func (f *fakeSPIBus) Tx(tx []byte) ([]byte, error) {
	f.calls = append(f.calls, append([]byte(nil), tx...))
	if f.err != nil {
		return nil, f.err
	}
	if len(tx) == 0 {
		return nil, nil
	}
	if q := f.queue[tx[0]]; len(q) > 0 {
		resp := q[0]
		f.queue[tx[0]] = q[1:]
		return resp, nil
	}
	return make([]byte, len(tx)), nil
}
