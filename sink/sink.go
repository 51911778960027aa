// Package sink plays raw CD audio sectors on a live output device.
package sink

import (
	"errors"
	"fmt"

	"github.com/faiface/beep"
)

// Format is the PCM layout of CD audio: 44.1kHz, stereo, signed 16-bit
// samples in host (little endian) byte order.
var Format = beep.Format{
	SampleRate:  44100,
	NumChannels: 2,
	Precision:   2,
}

// BytesPerFrame is the size of one stereo sample pair.
const BytesPerFrame = 4

var (
	ErrSinkOpen   = errors.New("sink: unable to open audio device")
	ErrSinkClosed = errors.New("sink: closed")
)

// Sink accepts blocks of PCM audio in [Format].
type Sink interface {
	// Write queues p for playback, blocking until the device accepts it.
	// p may be reused by the caller once Write returns.
	Write(p []byte) error
	// Close releases the device. It is safe to call more than once.
	Close() error
}

// Names of the available outputs, for use with [Open].
const (
	OutputSpeaker = "speaker"
	OutputOto     = "oto"
)

// Open initializes the named output.
func Open(name string) (Sink, error) {
	switch name {
	case "", OutputSpeaker:
		return OpenSpeaker()
	case OutputOto:
		return OpenOto()
	default:
		return nil, fmt.Errorf("%w: unknown output %q", ErrSinkOpen, name)
	}
}
