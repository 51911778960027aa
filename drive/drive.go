// Package drive describes the source of raw CD audio: a disc with
// numbered tracks, each a contiguous range of 2352 byte sectors.
package drive

import (
	"errors"
	"fmt"
)

// SectorsPerSecond is the number of sectors played per second of audio.
// (samples/second)*(bytes/sample)*(channels)/(bytes/sector) = 75 sectors/sec
const SectorsPerSecond = 75

// BytesPerSector is the size of one raw audio sector.
const BytesPerSector = 2352

// LeadIn is the number of frames before LSN 0, used when converting a
// sector address to an absolute MSF position.
const LeadIn = 150

var (
	ErrDriveOpen    = errors.New("drive: unable to open drive")
	ErrNoTracks     = errors.New("drive: no audio tracks on disc")
	ErrInvalidTrack = errors.New("drive: invalid track number")
	ErrSectorRead   = errors.New("drive: failed to read audio sector")
)

// Drive is an open disc. Track numbers start at 1.
type Drive interface {
	// TrackCount returns the number of tracks on the disc.
	TrackCount() int
	// FirstTrack returns the number of the first track, or ErrNoTracks.
	FirstTrack() (int, error)
	// Track returns the sector range of the given track.
	Track(n int) (Track, error)
	// ReadSector fills p, which must be BytesPerSector long, with
	// the audio at the given sector address.
	ReadSector(lsn int, p []byte) error
	Close() error
}

// Track is the sector range of one track. Start and End are both inclusive.
type Track struct {
	Number int
	Start  int
	End    int
}

// Sectors returns the number of sectors the track covers.
func (t Track) Sectors() int {
	return t.End - t.Start + 1
}

// Seconds returns the whole seconds of audio in the track.
func (t Track) Seconds() int {
	if t.End < t.Start {
		return 0
	}
	return t.Sectors() / SectorsPerSecond
}

// Elapsed returns the whole seconds played when lsn is the current sector.
func (t Track) Elapsed(lsn int) int {
	return (lsn - t.Start) / SectorsPerSecond
}

// Contains reports whether lsn is within the track bounds.
func (t Track) Contains(lsn int) bool {
	return lsn >= t.Start && lsn <= t.End
}

// MSF returns the absolute position of the track start.
func (t Track) MSF() MSF {
	return MSFFromLSN(t.Start)
}

// Tracks returns every track on the disc in order.
func Tracks(d Drive) ([]Track, error) {
	n := d.TrackCount()
	if n <= 0 {
		return nil, ErrNoTracks
	}
	tracks := make([]Track, 0, n)
	for i := 1; i <= n; i++ {
		t, err := d.Track(i)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// MSF is a minutes:seconds:frames disc position.
type MSF struct {
	Minutes int
	Seconds int
	Frames  int
}

// MSFFromLSN converts a sector address to an absolute disc position.
func MSFFromLSN(lsn int) MSF {
	lba := lsn + LeadIn
	if lba < 0 {
		lba = 0
	}
	return MSF{
		Minutes: lba / (SectorsPerSecond * 60),
		Seconds: (lba / SectorsPerSecond) % 60,
		Frames:  lba % SectorsPerSecond,
	}
}

func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.Minutes, m.Seconds, m.Frames)
}
