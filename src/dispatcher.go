package usbrf

/*------------------------------------------------------------------
 *
 * Purpose:	Protocol dispatcher (PD): owns the table of protocol
 *		slots and routes host-link control messages, the tick
 *		callback, radio callbacks and the main-loop poll to
 *		whichever slot is current (§4.1).
 *
 *------------------------------------------------------------------*/

// ExecType is the PROT_EXEC message's type field (§6).
type ExecType byte

const (
	ExecStop  ExecType = 0
	ExecStart ExecType = 1
	ExecExtra ExecType = 2
)

// ProtocolSlot is the vtable every protocol module implements (§3).
// Invariants enforced by Dispatcher, not by the slot itself: init precedes
// start, stop precedes deinit, run fires only while started, and parse_arg
// is only called between init and the matching start.
type ProtocolSlot struct {
	Name string

	Init  func()
	Deinit func()
	Start func()
	Stop  func()
	Run   func()
	Status func() string

	// ParseArg reassembles chunked PROT_EXEC argument bytes, keyed by
	// offset/total across multiple exec() calls (§4.1 step 3).
	ParseArg func(t ExecType, data []byte, offset, total int)
}

// Dispatcher holds the protocol table and the {current, running} state
// from §3/§4.1. It is not safe for concurrent use from multiple goroutines;
// like the original firmware, all mutation happens from a single logical
// thread (the main loop and the callbacks it is willing to run to
// completion, §5).
type Dispatcher struct {
	slots   []*ProtocolSlot
	current int // -1 means no protocol selected
	running bool
}

// NewDispatcher builds a dispatcher over the given protocol table with no
// protocol selected.
func NewDispatcher(slots []*ProtocolSlot) *Dispatcher {
	return &Dispatcher{slots: slots, current: -1}
}

// Current returns the currently selected protocol's index, or -1.
func (d *Dispatcher) Current() int { return d.current }

// Running reports whether the current protocol is started.
func (d *Dispatcher) Running() bool { return d.running }

// Slots exposes the protocol table, e.g. for a console `plist` command.
func (d *Dispatcher) Slots() []*ProtocolSlot { return d.slots }

func (d *Dispatcher) currentSlot() *ProtocolSlot {
	if d.current < 0 || d.current >= len(d.slots) {
		return nil
	}
	return d.slots[d.current]
}

// Exec implements §4.1's algorithm exactly:
//
//  1. If protID != current: stop (if running) and deinit the old slot,
//     switch current, init the new slot (unless protID < 0), running=false.
//  2. If t is START or STOP and running, stop; running=false.
//  3. If there are more bytes to come (argOffset+len(data) < argTotal isn't
//     assumed; the caller supplies data already sliced) and the slot has a
//     ParseArg, invoke it.
//  4. If t==START and all argument bytes have now been delivered, start;
//     running=true.
func (d *Dispatcher) Exec(protID int, t ExecType, data []byte, argOffset, argTotal int) {
	if protID != d.current {
		if d.running {
			if s := d.currentSlot(); s != nil && s.Stop != nil {
				s.Stop()
			}
			d.running = false
		}
		if s := d.currentSlot(); s != nil && s.Deinit != nil {
			s.Deinit()
		}
		d.current = protID
		if protID < 0 {
			return
		}
		if s := d.currentSlot(); s != nil && s.Init != nil {
			s.Init()
		}
		d.running = false
	}

	s := d.currentSlot()
	if s == nil {
		return
	}

	if (t == ExecStart || t == ExecStop) && d.running {
		if s.Stop != nil {
			s.Stop()
		}
		d.running = false
	}

	if argTotal > argOffset && s.ParseArg != nil {
		s.ParseArg(t, data, argOffset, argTotal)
	}

	if t == ExecStart && argOffset+len(data) >= argTotal {
		if s.Start != nil {
			s.Start()
		}
		d.running = true
	}
}

// Run delegates to the current slot's Run if and only if it is running
// (§4.1 "run() delegates to the current slot if and only if running").
func (d *Dispatcher) Run() {
	if !d.running {
		return
	}
	if s := d.currentSlot(); s != nil && s.Run != nil {
		s.Run()
	}
}

// Status reports the current slot's status string, or "" if none selected.
func (d *Dispatcher) Status() string {
	s := d.currentSlot()
	if s == nil || s.Status == nil {
		return ""
	}
	return s.Status()
}
