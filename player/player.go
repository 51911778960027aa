// Package player runs the read and play loop over the tracks of a disc,
// redirected by single key commands.
package player

import (
	"context"
	"fmt"

	"github.com/rabidaudio/cdplay/drive"
	"github.com/rabidaudio/cdplay/sink"
	"github.com/sirupsen/logrus"
)

// Input is a non-blocking source of key presses.
type Input interface {
	// Poll returns a pending byte, if there is one.
	Poll() (byte, bool)
	// Flush discards any other pending bytes.
	Flush()
}

// Player plays every track of Drive on Sink, one sector at a time.
// Between sectors it checks Input for a command: s stops, n skips to the
// next track and p goes back one.
type Player struct {
	Drive    drive.Drive
	Sink     sink.Sink
	Input    Input
	Progress Progress
	Log      logrus.FieldLogger
}

// Play runs until the last track finishes, a stop command arrives or ctx
// is cancelled. Cancellation is honoured between sectors, like a stop.
// A sector read failure abandons the rest of its track and is not
// returned; only a failing sink ends playback with an error.
func (p *Player) Play(ctx context.Context) error {
	log := p.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	total := p.Drive.TrackCount()
	buf := make([]byte, drive.BytesPerSector)

	for track := 1; track <= total; {
		ctl, err := p.playTrack(ctx, log, track, total, buf)
		if err != nil {
			return err
		}
		switch ctl.Action {
		case Stop:
			return nil
		case JumpTo:
			track = ctl.Track
		default:
			track++
		}
	}
	return nil
}

func (p *Player) playTrack(ctx context.Context, log logrus.FieldLogger, n, total int, buf []byte) (Control, error) {
	t, err := p.Drive.Track(n)
	if err != nil {
		log.WithError(err).Warnf("Failed to locate track %d", n)
		return Control{Action: Continue}, nil
	}
	p.Progress.TrackStart(t)

	for lsn := t.Start; lsn <= t.End; lsn++ {
		if err := p.Drive.ReadSector(lsn, buf); err != nil {
			log.WithField("lsn", lsn).WithError(err).Warnf("Failed to read audio sector at LSN %d", lsn)
			return Control{Action: Continue}, nil
		}

		if err := p.Sink.Write(buf); err != nil {
			return Control{}, fmt.Errorf("player: audio output failed at LSN %d: %w", lsn, err)
		}

		if (lsn-t.Start)%drive.SectorsPerSecond == 0 {
			p.Progress.Elapsed(t.Elapsed(lsn))
		}

		if ctl := p.poll(ctx, log, n, total); ctl.Interrupts() {
			return ctl, nil
		}
	}
	return Control{Action: Continue}, nil
}

// poll checks for a command without blocking.
func (p *Player) poll(ctx context.Context, log logrus.FieldLogger, n, total int) Control {
	select {
	case <-ctx.Done():
		log.Debugf("playback cancelled: %v", ctx.Err())
		return Control{Action: Stop}
	default:
	}

	if p.Input == nil {
		return Control{Action: Continue}
	}
	b, ok := p.Input.Poll()
	if !ok {
		return Control{Action: Continue}
	}
	p.Input.Flush()

	cmd := ParseCommand(b)
	ctl := Transition(cmd, n, total)
	if ctl.Interrupts() {
		log.WithFields(logrus.Fields{
			"command": cmd,
			"track":   n,
			"next":    ctl.Track,
		}).Debug("track interrupted")
	}
	return ctl
}
