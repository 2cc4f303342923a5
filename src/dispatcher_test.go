package usbrf

import "testing"

type countingSlot struct {
	starts, stops, inits, deinits int
	running                       bool
}

func newCountingSlot() *countingSlot { return &countingSlot{} }

func (s *countingSlot) slot(name string) *ProtocolSlot {
	return &ProtocolSlot{
		Name:   name,
		Init:   func() { s.inits++ },
		Deinit: func() { s.deinits++ },
		Start:  func() { s.starts++; s.running = true },
		Stop:   func() { s.stops++; s.running = false },
		Run:    func() {},
		Status: func() string { return name },
	}
}

// §8 invariant 1: for any host message sequence, the number of start calls
// on each slot equals the number of stop calls plus (running?1:0).
func TestDispatcherStartStopBalance(t *testing.T) {
	a := newCountingSlot()
	b := newCountingSlot()
	d := NewDispatcher([]*ProtocolSlot{a.slot("a"), b.slot("b")})

	d.Exec(0, ExecStart, nil, 0, 0)
	d.Exec(0, ExecStop, nil, 0, 0)
	d.Exec(0, ExecStart, nil, 0, 0)
	d.Exec(1, ExecStart, nil, 0, 0) // switches current away from 0, stopping it
	d.Exec(1, ExecStop, nil, 0, 0)
	d.Exec(1, ExecStart, nil, 0, 0)

	checkBalance := func(name string, s *countingSlot) {
		running := 0
		if s.running {
			running = 1
		}
		if s.starts != s.stops+running {
			t.Fatalf("slot %s: starts=%d stops=%d running=%v, balance violated", name, s.starts, s.stops, s.running)
		}
	}
	checkBalance("a", a)
	checkBalance("b", b)

	if d.Current() != 1 || !d.Running() {
		t.Fatalf("expected slot 1 current and running, got current=%d running=%v", d.Current(), d.Running())
	}
	if a.inits != 1 || a.deinits != 1 {
		t.Fatalf("slot a should have been inited once and deinited once on switch-away, got inits=%d deinits=%d", a.inits, a.deinits)
	}
}

func TestDispatcherChunkedParseArgReassembly(t *testing.T) {
	var got []byte
	s := &ProtocolSlot{
		Name: "chunked",
		Init: func() {},
		ParseArg: func(t ExecType, data []byte, offset, total int) {
			got = append(got, data...)
		},
		Start: func() {},
		Stop:  func() {},
	}
	d := NewDispatcher([]*ProtocolSlot{s})

	d.Exec(0, ExecStart, []byte{1, 2}, 0, 4)
	if d.Running() {
		t.Fatalf("should not start until all argument bytes have been delivered")
	}
	d.Exec(0, ExecStart, []byte{3, 4}, 2, 4)
	if !d.Running() {
		t.Fatalf("should start once the final chunk completes the argument")
	}
	if string(got) != string([]byte{1, 2, 3, 4}) {
		t.Fatalf("reassembled argument = %v, want [1 2 3 4]", got)
	}
}

func TestDispatcherRunOnlyWhenRunning(t *testing.T) {
	ran := false
	s := &ProtocolSlot{
		Name:  "r",
		Init:  func() {},
		Start: func() {},
		Stop:  func() {},
		Run:   func() { ran = true },
	}
	d := NewDispatcher([]*ProtocolSlot{s})
	d.Run()
	if ran {
		t.Fatalf("run() must not delegate before start")
	}
	d.Exec(0, ExecStart, nil, 0, 0)
	d.Run()
	if !ran {
		t.Fatalf("run() must delegate once started")
	}
}
