// Command audiohookd is a demo capture daemon: it wires the capture hook
// up to a transport, an optional recording-indicator LED, an optional
// mDNS advertisement, and a simulated (or, with the "portaudio" build
// tag, real microphone) capture source, then streams framed audio packets
// to stdout.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/doismellburning/audiohook/clock"
	"github.com/doismellburning/audiohook/config"
	"github.com/doismellburning/audiohook/discovery"
	"github.com/doismellburning/audiohook/hook"
	"github.com/doismellburning/audiohook/indicator"
	"github.com/doismellburning/audiohook/pcmsim"
	"github.com/doismellburning/audiohook/transport"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "audiohookd"})

func main() {
	configFile := pflag.StringP("config-file", "c", "", "Configuration file name. Empty uses built-in defaults.")
	allowSkip := pflag.BoolP("allow-skip", "s", true, "Drop frames instead of busy-waiting when a stream is ASYNC and the worker is still draining.")
	rate := pflag.Uint32P("rate", "r", 44100, "Simulated capture sample rate.")
	channels := pflag.Uint32P("channels", "n", 2, "Simulated capture channel count.")
	timestampFormat := pflag.StringP("timestamp-format", "T", "", "Precede each drained packet log line with this 'strftime' format time stamp.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - audio capture interception daemon.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: audiohookd [options]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(1)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			logger.Fatal("loading config", "err", err)
		}
		cfg = loaded
	}

	to := transport.NewBufferWithCapacity(cfg.TransportCapacity)
	h := hook.New(clock.NewMonotonic(), clock.NewAudioState())
	if err := h.SetTransport(to); err != nil {
		logger.Fatal("binding transport", "err", err)
	}
	allow := cfg.AllowSkip
	if pflag.CommandLine.Changed("allow-skip") {
		allow = *allowSkip
	}
	h.AllowSkip(allow)
	h.SetScratchBufferHint(cfg.ScratchBufferHint)

	ind := indicator.Noop()
	if cfg.Indicator.Enabled {
		led, err := indicator.Open(cfg.Indicator.Chip, cfg.Indicator.Line)
		if err != nil {
			logger.Error("opening indicator, continuing without one", "err", err)
		} else {
			ind = led
		}
	}
	defer ind.Close()

	var adv *discovery.Advertiser
	if cfg.Discovery.Advertise {
		var err error
		adv, err = discovery.Advertise(cfg.Discovery.ServiceName, cfg.Discovery.Port)
		if err != nil {
			logger.Error("starting discovery advertisement", "err", err)
		} else {
			defer adv.Stop()
		}
	}

	if err := h.Start(); err != nil {
		logger.Fatal("starting capture", "err", err)
	}
	if err := ind.On(); err != nil {
		logger.Error("lighting recording indicator", "err", err)
	}

	go drainToStdout(to, *timestampFormat)

	source := newCaptureSource(h, *rate, *channels)
	go source.run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	source.stop()
	_ = ind.Off()
	_ = h.Stop()
	h.Destroy()
	_ = to.Close()
}

// drainToStdout writes every framed packet as-is to stdout, a stand-in
// for a real downstream muxer/recorder. When timestampFormat is set, each
// packet also gets a strftime-stamped trace line on stderr, the same way
// kissutil.go timestamps received frames for the console.
func drainToStdout(to *transport.Buffer, timestampFormat string) {
	for {
		packets, err := to.Drain()
		if err != nil {
			return
		}
		for _, p := range packets {
			if timestampFormat != "" {
				stamp, err := strftime.Format(timestampFormat, time.Now())
				if err != nil {
					logger.Error("invalid timestamp format, ignoring", "err", err)
					timestampFormat = ""
				} else {
					fmt.Fprintf(os.Stderr, "[%s] %d bytes\n", stamp, len(p.Bytes))
				}
			}
			if _, err := os.Stdout.Write(p.Bytes); err != nil {
				logger.Error("writing to stdout", "err", err)
				return
			}
		}
	}
}

// pcmHandle is a placeholder host PCM handle for the demo source.
var pcmHandle = &pcmsim.Handle{Name: "default"}
