// Package cdrom reads audio from a physical drive through
// [github.com/rabidaudio/audiocd], which requires cgo and the native cd
// audio libraries, for example:
//
//	sudo apt install libcdio-dev libcdparanoia-dev
package cdrom

import (
	"fmt"
	"io"

	"github.com/rabidaudio/audiocd"
	"github.com/rabidaudio/cdplay/drive"
)

// CDROM is a [drive.Drive] backed by an audio cd in a disc drive.
type CDROM struct {
	cd     *audiocd.AudioCD
	tracks []drive.Track
}

// ensure interface conformation
var _ drive.Drive = (*CDROM)(nil)

// Open opens the drive at device, or the first detected drive
// when device is empty, and reads the table of contents.
func Open(device string) (*CDROM, error) {
	cd := &audiocd.AudioCD{Device: device}
	if err := cd.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", drive.ErrDriveOpen, err)
	}
	return &CDROM{cd: cd, tracks: tracksFromTOC(cd.TOC())}, nil
}

// tracksFromTOC numbers the toc entries from 1 in disc order.
func tracksFromTOC(toc []audiocd.TrackPosition) []drive.Track {
	tracks := make([]drive.Track, 0, len(toc))
	for i, t := range toc {
		start := int(t.StartSector)
		tracks = append(tracks, drive.Track{
			Number: i + 1,
			Start:  start,
			End:    start + int(t.LengthSectors) - 1,
		})
	}
	return tracks
}

func (c *CDROM) TrackCount() int {
	return len(c.tracks)
}

func (c *CDROM) FirstTrack() (int, error) {
	if len(c.tracks) == 0 {
		return 0, drive.ErrNoTracks
	}
	return c.tracks[0].Number, nil
}

func (c *CDROM) Track(n int) (drive.Track, error) {
	if n < 1 || n > len(c.tracks) {
		return drive.Track{}, fmt.Errorf("%w: %d", drive.ErrInvalidTrack, n)
	}
	return c.tracks[n-1], nil
}

// ReadSector seeks to the start of the sector and reads it whole.
// Sequential reads skip the seek inside audiocd since the offset already
// matches.
func (c *CDROM) ReadSector(lsn int, p []byte) error {
	if len(p) != drive.BytesPerSector {
		return fmt.Errorf("%w: buffer must be %d bytes", drive.ErrSectorRead, drive.BytesPerSector)
	}
	if _, err := c.cd.Seek(int64(lsn)*int64(audiocd.BytesPerSector), io.SeekStart); err != nil {
		return fmt.Errorf("%w: lsn %d: %v", drive.ErrSectorRead, lsn, err)
	}
	if _, err := io.ReadFull(c.cd, p); err != nil {
		return fmt.Errorf("%w: lsn %d: %v", drive.ErrSectorRead, lsn, err)
	}
	return nil
}

// Close releases the drive. It does not eject the disc.
func (c *CDROM) Close() error {
	return c.cd.Close()
}
