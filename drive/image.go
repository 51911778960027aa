package drive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-audio/wav"
)

// Image is a disc made from a directory of WAV files, one track per file in
// name order. Every file must hold 44.1kHz 16-bit stereo PCM. Tracks are laid
// out back to back in sector space starting at LSN 0, and a trailing partial
// sector is padded with silence.
//
// Image implements [Drive].
type Image struct {
	Path string

	files  []*os.File
	pcm    []int64 // offset of the PCM data in each file
	size   []int64 // length of the PCM data in each file
	tracks []Track
}

// ensure interface conformation
var _ Drive = (*Image)(nil)

// OpenImage loads every .wav file in dir as a track.
func OpenImage(dir string) (*Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriveOpen, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wav") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	img := &Image{Path: dir}
	lsn := 0
	for i, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			img.Close()
			return nil, fmt.Errorf("%w: %v", ErrDriveOpen, err)
		}
		img.files = append(img.files, f)

		offset, size, err := pcmRange(f)
		if err != nil {
			img.Close()
			return nil, fmt.Errorf("%w: %s: %v", ErrDriveOpen, name, err)
		}
		sectors := int((size + BytesPerSector - 1) / BytesPerSector)
		img.pcm = append(img.pcm, offset)
		img.size = append(img.size, size)
		img.tracks = append(img.tracks, Track{Number: i + 1, Start: lsn, End: lsn + sectors - 1})
		lsn += sectors
	}
	return img, nil
}

// pcmRange validates the WAV format and locates the PCM data chunk.
func pcmRange(f *os.File) (offset, size int64, err error) {
	dec := wav.NewDecoder(f)
	if err = dec.FwdToPCM(); err != nil {
		return 0, 0, err
	}
	if dec.SampleRate != 44100 || dec.NumChans != 2 || dec.BitDepth != 16 {
		return 0, 0, fmt.Errorf("unsupported format %dHz %d-bit %d channels, want 44100Hz 16-bit 2 channels",
			dec.SampleRate, dec.BitDepth, dec.NumChans)
	}
	size = dec.PCMLen()
	if size <= 0 {
		return 0, 0, fmt.Errorf("no audio data")
	}
	offset, err = f.Seek(0, io.SeekCurrent)
	return offset, size, err
}

func (img *Image) TrackCount() int {
	return len(img.tracks)
}

func (img *Image) FirstTrack() (int, error) {
	if len(img.tracks) == 0 {
		return 0, ErrNoTracks
	}
	return img.tracks[0].Number, nil
}

func (img *Image) Track(n int) (Track, error) {
	if n < 1 || n > len(img.tracks) {
		return Track{}, fmt.Errorf("%w: %d", ErrInvalidTrack, n)
	}
	return img.tracks[n-1], nil
}

func (img *Image) ReadSector(lsn int, p []byte) error {
	if len(p) != BytesPerSector {
		return fmt.Errorf("%w: buffer must be %d bytes", ErrSectorRead, BytesPerSector)
	}
	for i, t := range img.tracks {
		if !t.Contains(lsn) {
			continue
		}
		pos := int64(lsn-t.Start) * BytesPerSector
		want := img.size[i] - pos
		if want > BytesPerSector {
			want = BytesPerSector
		}
		n, err := img.files[i].ReadAt(p[:want], img.pcm[i]+pos)
		if err != nil && !(err == io.EOF && int64(n) == want) {
			return fmt.Errorf("%w: lsn %d: %v", ErrSectorRead, lsn, err)
		}
		clear(p[want:])
		return nil
	}
	return fmt.Errorf("%w: lsn %d is outside every track", ErrSectorRead, lsn)
}

func (img *Image) Close() error {
	var first error
	for _, f := range img.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	img.files, img.pcm, img.size, img.tracks = nil, nil, nil, nil
	return first
}
