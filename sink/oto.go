package sink

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto plays audio through an oto player reading from a pipe. Write returns
// once the player has consumed the whole block into its own buffer.
type Oto struct {
	ctx    *oto.Context
	player *oto.Player
	pw     *io.PipeWriter
	once   sync.Once
}

// OpenOto initializes an oto context in [Format].
func OpenOto() (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(Format.SampleRate),
		ChannelCount: Format.NumChannels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkOpen, err)
	}
	<-ready

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()
	return &Oto{ctx: ctx, player: player, pw: pw}, nil
}

func (o *Oto) Write(p []byte) error {
	_, err := o.pw.Write(p)
	if err == io.ErrClosedPipe {
		return ErrSinkClosed
	}
	return err
}

func (o *Oto) Close() (err error) {
	o.once.Do(func() {
		o.pw.Close()
		err = o.player.Close()
	})
	return err
}
