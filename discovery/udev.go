package discovery

import (
	"context"

	"github.com/jochenvg/go-udev"
)

// SoundEvent is a hot-plug notification for the "sound" udev subsystem.
type SoundEvent struct {
	Action string // "add", "remove", "change", ...
	Name   string // device's sysname, e.g. "card1"
	Path   string // device's syspath
}

// WatchSoundSubsystem streams hot-plug events for the "sound" subsystem
// until ctx is canceled. The returned channel is closed when the
// underlying netlink monitor stops.
func WatchSoundSubsystem(ctx context.Context) (<-chan SoundEvent, error) {
	u := &udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("sound"); err != nil {
		return nil, err
	}

	devices, err := mon.DeviceChan(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan SoundEvent)
	go func() {
		defer close(out)
		for d := range devices {
			ev := SoundEvent{
				Action: d.Action(),
				Name:   d.Sysname(),
				Path:   d.Syspath(),
			}
			logger.Debug("sound device event", "action", ev.Action, "name", ev.Name)
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
