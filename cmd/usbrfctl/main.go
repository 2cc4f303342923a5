package main

/*------------------------------------------------------------------
 *
 * Purpose:	Host-side control CLI: enumerates candidate serial
 *		devices via udev, opens the host link, and, with --start,
 *		sends a PROT_EXEC START for the given protocol index — the
 *		host counterpart to cmd/usbrfd. It does not send RC_DATA
 *		and does not read RECV_DATA / INFO replies.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	usbrf "github.com/ki7rf/usbrf/src"

	"github.com/jochenvg/go-udev"
	flag "github.com/spf13/pflag"
)

func main() {
	device := flag.StringP("device", "d", "", "host link serial device; if empty, enumerate via udev")
	baud := flag.IntP("baud", "b", 115200, "host link baud rate")
	listOnly := flag.Bool("list", false, "list candidate serial devices and exit")
	protoID := flag.Int("start", -1, "protocol index to select and start")
	flag.Parse()

	if *listOnly || *device == "" {
		devices := enumerateSerialDevices()
		if *listOnly {
			for _, d := range devices {
				fmt.Println(d)
			}
			return
		}
		if len(devices) == 0 {
			fmt.Fprintln(os.Stderr, "no candidate serial devices found")
			os.Exit(1)
		}
		*device = devices[0]
	}

	link, err := usbrf.OpenHostLink(*device, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *device, err)
		os.Exit(1)
	}
	defer link.Close()

	if *protoID >= 0 {
		if err := link.SendProtExec(int8(*protoID), usbrf.ExecStart, nil); err != nil {
			fmt.Fprintf(os.Stderr, "failed to send PROT_EXEC: %v\n", err)
			os.Exit(1)
		}
	}
}

// enumerateSerialDevices walks the udev device tree for tty devices, the
// way a udev-aware host tool would locate the dongle by subsystem.
func enumerateSerialDevices() []string {
	u := udev.Udev{}
	e := u.NewEnumerate()
	if err := e.AddMatchSubsystem("tty"); err != nil {
		return nil
	}
	devices, err := e.Devices()
	if err != nil {
		return nil
	}
	var out []string
	for _, d := range devices {
		if path := d.Devnode(); path != "" {
			out = append(out, path)
		}
	}
	return out
}
