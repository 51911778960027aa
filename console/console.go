//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// Package console owns the process-wide terminal settings used during
// playback: unbuffered no-echo input, non-blocking reads of stdin and a
// hidden cursor.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// maxFlush bounds Flush when stdin is something that never runs dry.
const maxFlush = 4096

// Terminal is the scoped terminal state. Acquire it once at startup and
// Restore it on every exit path.
type Terminal struct {
	fd       int
	state    *term.State
	nonblock bool
	out      *termenv.Output
	buf      [1]byte
	once     sync.Once
}

// Acquire switches in to non-canonical, no-echo, non-blocking mode and
// hides the cursor on out. When in is not a terminal only the non-blocking
// flag is set.
func Acquire(in *os.File, out io.Writer) (*Terminal, error) {
	t := &Terminal{
		fd:  int(in.Fd()),
		out: termenv.NewOutput(out),
	}

	if term.IsTerminal(t.fd) {
		state, err := term.GetState(t.fd)
		if err != nil {
			return nil, fmt.Errorf("console: failed to read terminal state: %w", err)
		}
		t.state = state
		if err := cbreak(t.fd); err != nil {
			t.Restore()
			return nil, fmt.Errorf("console: failed to set terminal mode: %w", err)
		}
	}

	if err := unix.SetNonblock(t.fd, true); err != nil {
		t.Restore()
		return nil, fmt.Errorf("console: failed to set nonblocking stdin: %w", err)
	}
	t.nonblock = true

	t.out.HideCursor()
	return t, nil
}

// cbreak turns off echo and line buffering, leaving output processing and
// signal keys alone.
func cbreak(fd int) error {
	tio, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return err
	}
	tio.Lflag &^= unix.ECHO | unix.ICANON
	tio.Cc[unix.VMIN] = 1
	tio.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, ioctlWriteTermios, tio)
}

// Poll returns the next pending input byte without blocking.
func (t *Terminal) Poll() (byte, bool) {
	n, err := unix.Read(t.fd, t.buf[:])
	if err != nil || n <= 0 {
		return 0, false
	}
	return t.buf[0], true
}

// Flush discards any input still pending. On a terminal the kernel input
// queue is flushed; other inputs are read until they run dry.
func (t *Terminal) Flush() {
	if t.state != nil {
		if err := flushInput(t.fd); err == nil {
			return
		}
	}
	for i := 0; i < maxFlush; i++ {
		if _, ok := t.Poll(); !ok {
			return
		}
	}
}

// Restore puts back everything Acquire changed. Only the first call has
// any effect.
func (t *Terminal) Restore() error {
	var err error
	t.once.Do(func() {
		if t.nonblock {
			err = unix.SetNonblock(t.fd, false)
			t.nonblock = false
		}
		if t.state != nil {
			if rerr := term.Restore(t.fd, t.state); rerr != nil && err == nil {
				err = rerr
			}
			t.state = nil
		}
		t.out.ShowCursor()
		t.out.Reset()
	})
	return err
}
