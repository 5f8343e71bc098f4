package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// MDNSService is the service type the control server announces.
	MDNSService = "_kfe._tcp"
	mdnsDomain  = "local."
)

// Announce registers the control server in mDNS so clients can find it
// without a configured address, the way the legacy servers registered with
// the name service. The returned shutdown function deregisters the service.
func Announce(instance string, port int, txt []string) (func(), error) {
	srv, err := zeroconf.Register(instance, MDNSService, mdnsDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("registering mDNS service: %w", err)
	}
	return srv.Shutdown, nil
}

// Endpoint is a discovered front-end control server.
type Endpoint struct {
	Instance  string
	Hostname  string
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Addr returns a dialable host:port for the endpoint.
func (e Endpoint) Addr() string {
	if len(e.Addresses) > 0 {
		return net.JoinHostPort(e.Addresses[0].String(), fmt.Sprintf("%d", e.Port))
	}
	return net.JoinHostPort(e.Hostname, fmt.Sprintf("%d", e.Port))
}

// Discover performs a blocking mDNS browse for front-end control servers.
func Discover(timeout time.Duration) ([]Endpoint, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var found []Endpoint

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e == nil {
				continue
			}

			addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
			addrs = append(addrs, e.AddrIPv4...)
			addrs = append(addrs, e.AddrIPv6...)

			found = append(found, Endpoint{
				Instance:  e.Instance,
				Hostname:  e.HostName,
				Addresses: addrs,
				Port:      e.Port,
				TXT:       append([]string{}, e.Text...),
			})
		}
	}()

	if err := resolver.Browse(ctx, MDNSService, mdnsDomain, entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-ctx.Done()
	<-done

	return found, nil
}
