// Package discovery advertises a running capture daemon on the local
// network via mDNS/DNS-SD, the same way dns_sd.go announces the KISS TCP
// service, and watches the sound subsystem for device hot-plug events via
// udev.
package discovery

import (
	"context"
	"fmt"
	"os"

	"github.com/brutella/dnssd"

	charmlog "github.com/charmbracelet/log"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "discovery"})

// ServiceType is the DNS-SD service type advertised for a capture daemon.
const ServiceType = "_audiocapture._tcp"

// Advertiser owns the lifetime of one DNS-SD responder.
type Advertiser struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Advertise registers name (or a generated default, if empty) on port
// under ServiceType and starts responding to mDNS queries in the
// background. Call Stop to withdraw the advertisement.
func Advertise(name string, port int) (*Advertiser, error) {
	if name == "" {
		name = defaultServiceName()
	}

	cfg := dnssd.Config{ //nolint:exhaustruct
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating service: %w", err)
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("discovery: creating responder: %w", err)
	}

	if _, err := rp.Add(sv); err != nil {
		return nil, fmt.Errorf("discovery: adding service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Advertiser{cancel: cancel, done: make(chan struct{})}

	logger.Info("advertising capture service", "name", name, "type", ServiceType, "port", port)
	go func() {
		defer close(a.done)
		if err := rp.Respond(ctx); err != nil && ctx.Err() == nil {
			logger.Error("responder stopped unexpectedly", "err", err)
		}
	}()

	return a, nil
}

// Stop withdraws the advertisement and waits for the responder goroutine
// to exit.
func (a *Advertiser) Stop() {
	a.cancel()
	<-a.done
}

func defaultServiceName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "audiohook"
	}
	return "audiohook@" + hostname
}
