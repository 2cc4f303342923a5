package usbrf

import (
	"context"
	"net"
	"strconv"

	"github.com/brutella/dnssd"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Optional TCP bridge of the host link, for driving the
 *		device over the network instead of a local USB CDC-ACM
 *		endpoint, plus mDNS/DNS-SD advertisement so a host tool can
 *		discover it without a typed-in IP address — mirroring the
 *		teacher's KISS-over-TCP bridge (src/kissnet.go) and its
 *		DNS-SD announcement (src/dns_sd.go) line for line.
 *
 *------------------------------------------------------------------*/

// DNSSDServiceType is this device's DNS-SD service type string, following
// the teacher's "_kiss-tnc._tcp" naming convention.
const DNSSDServiceType = "_usbrf-host-link._tcp"

// NetBridge listens for a single TCP connection and bridges it to a
// HostLink, the way kissnet.go bridges a TCP client to the KISS framer.
type NetBridge struct {
	listener net.Listener
	name     string
	port     int
}

// ListenNetBridge opens a TCP listener on port for the host link bridge.
func ListenNetBridge(port int, name string) (*NetBridge, error) {
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}
	return &NetBridge{listener: l, name: name, port: port}, nil
}

// Accept blocks for the next client connection and wraps it in a HostLink.
func (b *NetBridge) Accept() (*HostLink, error) {
	conn, err := b.listener.Accept()
	if err != nil {
		return nil, err
	}
	return NewHostLinkOverStream(conn), nil
}

// Close stops accepting new connections.
func (b *NetBridge) Close() error {
	return b.listener.Close()
}

// Announce advertises the bridge over mDNS/DNS-SD, the same pattern as
// dns_sd_announce in the teacher: build a dnssd.Config, create a service
// and responder, add the service, and run the responder loop in the
// background.
func (b *NetBridge) Announce() error {
	cfg := dnssd.Config{
		Name: b.name,
		Type: DNSSDServiceType,
		Port: b.port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		Logger.Error("DNS-SD: failed to create service", "err", err)
		return err
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		Logger.Error("DNS-SD: failed to create responder", "err", err)
		return err
	}

	if _, err := rp.Add(sv); err != nil {
		Logger.Error("DNS-SD: failed to add service", "err", err)
		return err
	}

	Logger.Info("DNS-SD: announcing host link", "port", b.port, "name", b.name)

	go func() {
		if err := rp.Respond(context.Background()); err != nil {
			Logger.Error("DNS-SD: responder error", "err", err)
		}
	}()

	return nil
}
