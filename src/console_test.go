package usbrf

import "testing"

func newTestConsole(t *testing.T) (*Console, *[]string) {
	t.Helper()
	a := newCountingSlot()
	d := NewDispatcher([]*ProtocolSlot{a.slot("dsm_hack")})
	cfg := DefaultConfig()
	var saved *Config
	lines := &[]string{}
	c := NewConsole(d, cfg,
		func(cfg *Config) error { cp := *cfg; saved = &cp; return nil },
		func() (*Config, error) { return saved, nil },
		func(s string) { *lines = append(*lines, s) },
	)
	return c, lines
}

func TestConsoleSelectStartStopStatus(t *testing.T) {
	c, lines := newTestConsole(t)

	c.Run("pset 0")
	c.Run("start")
	if !c.dispatcher.Running() {
		t.Fatalf("expected protocol to be running after start")
	}
	c.Run("status")
	c.Run("stop")
	if c.dispatcher.Running() {
		t.Fatalf("expected protocol to be stopped")
	}

	if len(*lines) == 0 {
		t.Fatalf("expected console output")
	}
}

func TestConsoleConfigSetGetRoundTrip(t *testing.T) {
	c, lines := newTestConsole(t)
	c.Run("set cc_fsctrl0 5")
	c.Run("save")
	c.Run("list")

	found := false
	for _, l := range *lines {
		if l == "cc_fsctrl0 = 5" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'list' to report cc_fsctrl0 = 5, got %v", *lines)
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	c, lines := newTestConsole(t)
	c.Run("bogus")
	if len(*lines) != 1 {
		t.Fatalf("expected exactly one output line for an unknown command")
	}
}

func TestConsolePsetOutOfRange(t *testing.T) {
	c, lines := newTestConsole(t)
	c.Run("pset 99")
	if len(*lines) != 1 {
		t.Fatalf("expected exactly one output line for an out-of-range protocol index")
	}
}
