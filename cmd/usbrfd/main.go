package main

/*------------------------------------------------------------------
 *
 * Purpose:	Firmware-loop simulator: wires a host link, two radio
 *		chip drivers, the tick timer, antenna mux and protocol
 *		dispatcher the way real firmware bringup would, for
 *		development and bench testing without the real USB device.
 *
 *------------------------------------------------------------------*/

import (
	"os"
	"os/signal"
	"syscall"

	usbrf "github.com/ki7rf/usbrf/src"

	flag "github.com/spf13/pflag"
)

func main() {
	serialDevice := flag.StringP("device", "d", "", "host link serial device (e.g. /dev/ttyACM0); empty runs with no host link")
	baud := flag.IntP("baud", "b", 115200, "host link baud rate")
	gpioChip := flag.String("gpiochip", "gpiochip0", "gpiochip device for antenna/LED/button lines")
	configPath := flag.String("config", "usbrf.yaml", "bootstrap configuration scaffold path")
	flag.Parse()

	usbrf.Logger.Info("starting usbrfd", "device", *serialDevice, "baud", *baud)

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		if err := usbrf.WriteBootstrapYAML(*configPath); err != nil {
			usbrf.Logger.Error("failed to write bootstrap config", "err", err)
		}
	}
	cfg := usbrf.DefaultConfig()

	ticker := usbrf.NewTicker()

	ant, err := usbrf.NewGPIOAntennaSwitch(*gpioChip, 0, 1)
	if err != nil {
		usbrf.Logger.Warn("antenna mux unavailable, continuing without it", "err", err)
	}

	var link *usbrf.HostLink
	if *serialDevice != "" {
		l, err := usbrf.OpenHostLink(*serialDevice, *baud)
		if err != nil {
			usbrf.Logger.Fatal("failed to open host link", "err", err)
		}
		link = l
		defer link.Close()
	}

	rcBuf := usbrf.NewRcChannelBuffer()
	if link != nil {
		link.AttachRcBuffer(rcBuf)
	}

	cyrf := usbrf.NewCYRF6936(nil)
	cc := usbrf.NewCC2500(nil)

	dev := usbrf.NewDevice(cyrf, cc, ticker, ant, link, cfg)

	if link != nil {
		usbrf.NewDeviceInfo(link, cyrf, cc)
	}

	stop := make(chan struct{})
	go usbrf.RealTimeDriver(ticker, stop)
	defer close(stop)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	usbrf.Logger.Info("usbrfd running")
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				dev.Run()
			}
		}
	}()

	<-sig
	close(done)
	usbrf.Logger.Info("shutting down")
}
