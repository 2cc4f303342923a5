package usbrf

import "sync"

/*------------------------------------------------------------------
 *
 * Purpose:	SPI register-transfer contract shared by the cc2500 and
 *		cyrf6936 drivers, modeled on the Tx([]byte)([]byte,error)
 *		shape of a real Linux spidev binding.
 *
 *		Register I/O is done with a critical section held around
 *		the exchange to guarantee chip-select framing (§5
 *		"Interrupt discipline"); here that is a scoped mutex guard
 *		rather than disabling interrupts, since there is no
 *		interrupt controller to mask in a hosted build.
 *
 *------------------------------------------------------------------*/

// SPIBus is the minimal register-transfer contract a radio driver needs.
// A concrete implementation wraps a Linux spidev node; tests use a fake
// that records writes and plays back canned reads.
type SPIBus interface {
	// Tx exchanges len(tx) bytes full-duplex, asserting chip-select for
	// the duration of the transfer and releasing it on return.
	Tx(tx []byte) (rx []byte, err error)
}

// CSGuard serializes access to an SPIBus so that one register transfer is
// never interleaved with another context's register access; the drivers
// take one guard per Tx, so a sequence of transfers (e.g. strobe +
// poll-status) is not held as a unit. It is acquired on construction and released exactly
// once; Release is safe to call via defer even on an error path.
type CSGuard struct {
	mu *sync.Mutex
}

// AcquireCS acquires the bus's critical section. Callers should
// `defer guard.Release()` immediately.
func AcquireCS(mu *sync.Mutex) CSGuard {
	mu.Lock()
	return CSGuard{mu: mu}
}

// Release releases the critical section. Safe to call at most once;
// calling it twice double-unlocks the underlying mutex, same as sync.Mutex.
func (g CSGuard) Release() {
	g.mu.Unlock()
}

// busMutex is embedded by concrete radio drivers to provide the
// chip-select guard without each driver re-declaring a sync.Mutex.
type busMutex struct {
	mu sync.Mutex
}

func (b *busMutex) guard() CSGuard {
	return AcquireCS(&b.mu)
}
