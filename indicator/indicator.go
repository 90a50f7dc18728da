// Package indicator drives the recording-indicator LED, the Go analogue
// of ptt.go's GPIO output control adapted from keying a radio transmitter
// to signaling "this process is actively capturing audio."
package indicator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Indicator turns the recording indicator on or off. It must be safe to
// call from the goroutine that toggles hook.Hook's capturing state.
type Indicator interface {
	On() error
	Off() error
	Close() error
}

// noop is the Indicator used when no GPIO line is configured.
type noop struct{}

// Noop returns an Indicator that does nothing, for daemons that have no
// physical recording LED wired up.
func Noop() Indicator { return noop{} }

func (noop) On() error    { return nil }
func (noop) Off() error   { return nil }
func (noop) Close() error { return nil }

// outputLine is the slice of *gpiocdev.Line's behavior gpioLED depends
// on, narrow enough that tests can supply a mock without requiring GPIO
// hardware or the gpio-sim kernel module.
type outputLine interface {
	SetValue(v int) error
	Close() error
}

// gpioLED drives one gpiod output line, held low until On and returned
// low on Off/Close.
type gpioLED struct {
	line outputLine
}

// Open requests chip's line as an output, initially off, under consumer
// name "audiohook", mirroring the PTT GPIOD config form's chip+line pair.
func Open(chip string, line int) (Indicator, error) {
	l, err := gpiocdev.RequestLine(chip, line,
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer("audiohook"))
	if err != nil {
		return nil, fmt.Errorf("indicator: requesting %s line %d: %w", chip, line, err)
	}
	return &gpioLED{line: l}, nil
}

func (g *gpioLED) On() error  { return g.line.SetValue(1) }
func (g *gpioLED) Off() error { return g.line.SetValue(0) }

func (g *gpioLED) Close() error {
	if err := g.line.SetValue(0); err != nil {
		_ = g.line.Close()
		return err
	}
	return g.line.Close()
}
