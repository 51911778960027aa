package player

import (
	"fmt"
	"io"

	"github.com/rabidaudio/cdplay/drive"
)

// FormatTime renders seconds as zero padded MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Progress prints playback status. Elapsed time is rewritten in place on
// a single line.
type Progress struct {
	W io.Writer
}

func (p Progress) TrackCount(n int) {
	fmt.Fprintf(p.W, "Number of tracks: %d\n", n)
}

func (p Progress) TrackStart(t drive.Track) {
	fmt.Fprintf(p.W, "\nPlaying track: %d\n", t.Number)
	fmt.Fprintf(p.W, "Total time: %s\n", FormatTime(t.Seconds()))
	fmt.Fprintf(p.W, "Track MSF: %s\n", t.MSF())
}

func (p Progress) Elapsed(seconds int) {
	fmt.Fprintf(p.W, "Elapsed time: %s\r", FormatTime(seconds))
	if f, ok := p.W.(interface{ Flush() error }); ok {
		f.Flush()
	}
}
