package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rabidaudio/cdplay/drive"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDrive stamps each sector with its own address.
type fakeDrive struct {
	tracks []drive.Track
	failAt map[int]bool
	reads  int
}

func newFakeDrive(lengths ...int) *fakeDrive {
	d := &fakeDrive{failAt: map[int]bool{}}
	lsn := 0
	for i, l := range lengths {
		d.tracks = append(d.tracks, drive.Track{Number: i + 1, Start: lsn, End: lsn + l - 1})
		lsn += l
	}
	return d
}

func (d *fakeDrive) TrackCount() int { return len(d.tracks) }

func (d *fakeDrive) FirstTrack() (int, error) {
	if len(d.tracks) == 0 {
		return 0, drive.ErrNoTracks
	}
	return 1, nil
}

func (d *fakeDrive) Track(n int) (drive.Track, error) {
	if n < 1 || n > len(d.tracks) {
		return drive.Track{}, drive.ErrInvalidTrack
	}
	return d.tracks[n-1], nil
}

func (d *fakeDrive) ReadSector(lsn int, p []byte) error {
	d.reads++
	if d.failAt[lsn] {
		return fmt.Errorf("%w: lsn %d", drive.ErrSectorRead, lsn)
	}
	binary.LittleEndian.PutUint32(p, uint32(lsn))
	return nil
}

func (d *fakeDrive) Close() error { return nil }

func (d *fakeDrive) trackOf(lsn int) int {
	for _, t := range d.tracks {
		if t.Contains(lsn) {
			return t.Number
		}
	}
	return -1
}

// fakeSink records the address of every sector written.
type fakeSink struct {
	played []int
	failAt int
}

func (s *fakeSink) Write(p []byte) error {
	if len(p) != drive.BytesPerSector {
		return fmt.Errorf("bad block size %d", len(p))
	}
	lsn := int(binary.LittleEndian.Uint32(p))
	if s.failAt > 0 && len(s.played) == s.failAt {
		return errors.New("device unplugged")
	}
	s.played = append(s.played, lsn)
	return nil
}

func (s *fakeSink) Close() error { return nil }

// scriptedInput delivers keys[i] on the i-th poll.
type scriptedInput struct {
	keys    map[int]byte
	polls   int
	flushes int
}

func (in *scriptedInput) Poll() (byte, bool) {
	b, ok := in.keys[in.polls]
	in.polls++
	return b, ok
}

func (in *scriptedInput) Flush() {
	in.flushes++
}

type harness struct {
	drive *fakeDrive
	sink  *fakeSink
	input *scriptedInput
	out   bytes.Buffer
	hook  *test.Hook
	p     *Player
}

func newHarness(keys map[int]byte, lengths ...int) *harness {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h := &harness{
		drive: newFakeDrive(lengths...),
		sink:  &fakeSink{},
		input: &scriptedInput{keys: keys},
		hook:  hook,
	}
	h.p = &Player{
		Drive:    h.drive,
		Sink:     h.sink,
		Input:    h.input,
		Progress: Progress{W: &h.out},
		Log:      logger,
	}
	return h
}

// sequence collapses the played sectors into the order tracks were played.
func (h *harness) sequence() []int {
	var seq []int
	last := -1
	for i, lsn := range h.sink.played {
		n := h.drive.trackOf(lsn)
		// a new run starts on a track change or a jump back to a track start
		if n != last || (i > 0 && lsn != h.sink.played[i-1]+1) {
			seq = append(seq, n)
		}
		last = n
	}
	return seq
}

func (h *harness) elapsedUpdates() int {
	return strings.Count(h.out.String(), "Elapsed time:")
}

func TestPlayAll(t *testing.T) {
	h := newHarness(nil, 150, 75*3, 100)
	require.NoError(t, h.p.Play(context.Background()))

	assert.Len(t, h.sink.played, 150+225+100)
	for i, lsn := range h.sink.played {
		assert.Equal(t, i, lsn, "sectors play in ascending order")
	}
	assert.Equal(t, []int{1, 2, 3}, h.sequence())
	// 2 + 3 + 2 second boundaries
	assert.Equal(t, 7, h.elapsedUpdates())
	assert.Equal(t, 3, strings.Count(h.out.String(), "Playing track:"))
	assert.Contains(t, h.out.String(), "Playing track: 2\nTotal time: 00:03\nTrack MSF: 00:04:00\n")
	assert.Contains(t, h.out.String(), "Elapsed time: 00:02\r")
	assert.Equal(t, 0, h.input.flushes)
}

func TestElapsedUpdatesOncePerSecond(t *testing.T) {
	for _, seconds := range []int{1, 2, 5} {
		h := newHarness(nil, 75*seconds)
		require.NoError(t, h.p.Play(context.Background()))
		assert.Equal(t, seconds, h.elapsedUpdates())
	}
}

func TestStop(t *testing.T) {
	for _, key := range []byte{'s', 'S'} {
		h := newHarness(map[int]byte{40: key}, 150, 150)
		require.NoError(t, h.p.Play(context.Background()))

		// the sector polled after is played, nothing is read afterwards
		assert.Len(t, h.sink.played, 41)
		assert.Equal(t, 41, h.drive.reads)
		assert.Equal(t, []int{1}, h.sequence())
		assert.Equal(t, 1, h.input.flushes)
	}
}

func TestNext(t *testing.T) {
	h := newHarness(map[int]byte{10: 'n'}, 150, 150, 150)
	require.NoError(t, h.p.Play(context.Background()))

	assert.Equal(t, []int{1, 2, 3}, h.sequence())
	assert.Len(t, h.sink.played, 11+150+150)
	assert.Equal(t, 150, h.sink.played[11], "track 2 starts from its first sector")
}

func TestNextWrapsToFirstTrack(t *testing.T) {
	// poll 310 is on track 3, the last; poll 320 is 9 sectors into track 1 again
	h := newHarness(map[int]byte{310: 'N', 320: 's'}, 150, 150, 150)
	require.NoError(t, h.p.Play(context.Background()))

	assert.Equal(t, []int{1, 2, 3, 1}, h.sequence())
	assert.Equal(t, 0, h.sink.played[311])
	assert.Len(t, h.sink.played, 321)
}

func TestPreviousFromFirstTrack(t *testing.T) {
	h := newHarness(map[int]byte{10: 'p'}, 100, 100, 100, 100)
	require.NoError(t, h.p.Play(context.Background()))

	// lands one before the last track
	assert.Equal(t, []int{1, 3, 4}, h.sequence())
	assert.Equal(t, 200, h.sink.played[11])
}

func TestPrevious(t *testing.T) {
	// poll 250 is 50 sectors into track 3
	h := newHarness(map[int]byte{250: 'p', 260: 's'}, 100, 100, 100, 100)
	require.NoError(t, h.p.Play(context.Background()))

	assert.Equal(t, []int{1, 2, 3, 2}, h.sequence())
	assert.Equal(t, 100, h.sink.played[251])
}

func TestIgnoredKeysKeepPlaying(t *testing.T) {
	h := newHarness(map[int]byte{5: 'x', 6: ' ', 80: 'q'}, 100, 100)
	require.NoError(t, h.p.Play(context.Background()))

	assert.Len(t, h.sink.played, 200)
	assert.Equal(t, []int{1, 2}, h.sequence())
	assert.Equal(t, 3, h.input.flushes, "every received byte flushes pending input")
}

func TestReadFailureSkipsTrack(t *testing.T) {
	h := newHarness(nil, 100, 100, 100)
	h.drive.failAt[140] = true
	require.NoError(t, h.p.Play(context.Background()))

	assert.Equal(t, []int{1, 2, 3}, h.sequence())
	assert.Len(t, h.sink.played, 100+40+100)
	assert.Equal(t, 139, h.sink.played[139])
	assert.Equal(t, 200, h.sink.played[140])

	entry := h.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 140, entry.Data["lsn"])
	assert.Equal(t, "Failed to read audio sector at LSN 140", entry.Message)
}

func TestReadFailureOnLastTrackEnds(t *testing.T) {
	h := newHarness(nil, 100, 100)
	h.drive.failAt[100] = true
	require.NoError(t, h.p.Play(context.Background()))

	assert.Len(t, h.sink.played, 100)
	assert.Equal(t, []int{1}, h.sequence())
}

func TestCancelStopsBetweenSectors(t *testing.T) {
	h := newHarness(nil, 100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.p.Play(ctx))
	assert.Len(t, h.sink.played, 1)
	assert.Equal(t, 1, h.drive.reads)
}

func TestSinkFailure(t *testing.T) {
	h := newHarness(nil, 100, 100)
	h.sink.failAt = 120

	err := h.p.Play(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LSN 120")
	assert.Len(t, h.sink.played, 120)
}

func TestNoInput(t *testing.T) {
	h := newHarness(nil, 10)
	h.p.Input = nil
	h.p.Log = nil

	require.NoError(t, h.p.Play(context.Background()))
	assert.Len(t, h.sink.played, 10)
	assert.Nil(t, h.p.Log, "the standard logger is used without being stored")
}

func TestEmptyDisc(t *testing.T) {
	h := newHarness(nil)
	require.NoError(t, h.p.Play(context.Background()))
	assert.Empty(t, h.sink.played)
	assert.Empty(t, h.out.String())
}
