package usbrf

import (
	"fmt"
	"sort"
	"strings"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Console command table (§6), an external collaborator the
 *		core only reaches through the dispatcher's exec/start/stop
 *		entry points (§6: "only pset/start/stop affect the protocol
 *		dispatcher and do so through the same entry points as
 *		PROT_EXEC"). Mirrors modules/protocol.c's plist/pset/
 *		start/stop/status commands and modules/config.c's version/
 *		load/save/list/set/reset commands (supplemented feature 5).
 *
 *------------------------------------------------------------------*/

// Console is a line-oriented command dispatcher.
type Console struct {
	dispatcher *Dispatcher
	config     *Config
	store      func(*Config) error
	load       func() (*Config, error)
	print      func(string)
}

// NewConsole wires the console against a dispatcher and a persisted
// config, with store/load hooks for `save`/`load`. `reset` uses neither
// hook; it only replaces the in-memory config with the defaults.
func NewConsole(d *Dispatcher, cfg *Config, store func(*Config) error, load func() (*Config, error), print func(string)) *Console {
	return &Console{dispatcher: d, config: cfg, store: store, load: load, print: print}
}

// Run parses and executes one command line.
func (c *Console) Run(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "plist":
		c.cmdList()
	case "pset":
		c.cmdSet(args)
	case "start":
		c.cmdStart()
	case "stop":
		c.cmdStop()
	case "status":
		c.cmdStatus()
	case "version":
		c.print(fmt.Sprintf("usbrf firmware %s board %#02x", FirmwareVersion, BoardID))
	case "load":
		c.cmdLoad()
	case "save":
		c.cmdSave()
	case "list":
		c.cmdConfigList()
	case "set":
		c.cmdConfigSet(args)
	case "reset":
		c.config = DefaultConfig()
		c.print("configuration reset to defaults")
	default:
		c.print(fmt.Sprintf("unknown command %q", cmd))
	}
}

func (c *Console) cmdList() {
	c.print("Available protocols:")
	for i, s := range c.dispatcher.Slots() {
		c.print(fmt.Sprintf("\t%d: %s", i, s.Name))
	}
}

func (c *Console) cmdSet(args []string) {
	if len(args) != 1 {
		c.dispatcher.Exec(-1, ExecStop, nil, 0, 0)
		c.print("The current protocol is changed to NONE")
		return
	}
	var idx int
	if _, err := fmt.Sscanf(args[0], "%d", &idx); err != nil || idx < 0 || idx >= len(c.dispatcher.Slots()) {
		c.print(fmt.Sprintf("The protocol number needs to be between 0 and %d", len(c.dispatcher.Slots())))
		return
	}
	c.dispatcher.Exec(idx, ExecStop, nil, 0, 0)
	c.print(fmt.Sprintf("The current protocol is changed to %s", c.dispatcher.Slots()[idx].Name))
}

func (c *Console) cmdStart() {
	if c.dispatcher.Current() < 0 {
		c.print("No protocol selected.")
		return
	}
	c.dispatcher.Exec(c.dispatcher.Current(), ExecStart, nil, 0, 0)
	c.print(fmt.Sprintf("Started protocol %s.", c.dispatcher.Slots()[c.dispatcher.Current()].Name))
}

func (c *Console) cmdStop() {
	if c.dispatcher.Current() < 0 {
		c.print("No protocol selected.")
		return
	}
	c.dispatcher.Exec(c.dispatcher.Current(), ExecStop, nil, 0, 0)
	c.print(fmt.Sprintf("Stopped protocol %s.", c.dispatcher.Slots()[c.dispatcher.Current()].Name))
}

func (c *Console) cmdStatus() {
	if c.dispatcher.Current() < 0 {
		c.print("No protocol selected.")
		return
	}
	c.print("Protocol")
	c.print(fmt.Sprintf("\tCurrent: %s", c.dispatcher.Slots()[c.dispatcher.Current()].Name))
	c.print(c.dispatcher.Status())
}

func (c *Console) cmdLoad() {
	if c.load == nil {
		return
	}
	cfg, err := c.load()
	if err != nil {
		c.print(fmt.Sprintf("load failed: %v", err))
		return
	}
	c.config = cfg
	c.print("configuration loaded")
}

func (c *Console) cmdSave() {
	if c.store == nil {
		return
	}
	if err := c.store(c.config); err != nil {
		c.print(fmt.Sprintf("save failed: %v", err))
		return
	}
	c.print("configuration saved")
}

func (c *Console) cmdConfigList() {
	fields := c.config.List()
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c.print(fmt.Sprintf("%s = %s", n, fields[n]))
	}
}

func (c *Console) cmdConfigSet(args []string) {
	if len(args) != 2 {
		c.print("usage: set <name> <value>")
		return
	}
	if err := c.config.Set(args[0], args[1]); err != nil {
		c.print(err.Error())
		return
	}
	c.print(fmt.Sprintf("%s = %s", args[0], args[1]))
}
