package sink

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// queueDepth is how many sectors may wait ahead of the speaker, 1/5s of audio.
const queueDepth = 15

// Speaker plays audio through [speaker], feeding it from a small sector
// queue. Write blocks while the queue is full, so the caller is paced by
// the hardware.
type Speaker struct {
	q    *sectorQueue
	once sync.Once
}

// OpenSpeaker initializes the default audio device.
func OpenSpeaker() (*Speaker, error) {
	err := speaker.Init(Format.SampleRate, Format.SampleRate.N(time.Second/10))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSinkOpen, err)
	}
	q := newSectorQueue(queueDepth)
	speaker.Play(q)
	return &Speaker{q: q}, nil
}

func (s *Speaker) Write(p []byte) error {
	return s.q.Write(p)
}

// Close lets queued audio finish, then shuts down the device.
func (s *Speaker) Close() error {
	s.once.Do(func() {
		s.q.drain(Format.SampleRate.D(queueDepth * 588))
		s.q.close()
		speaker.Clear()
		speaker.Close()
	})
	return nil
}

// sectorQueue is a beep.Streamer over sectors received through Write.
// When the queue runs dry it plays silence rather than ending the stream.
type sectorQueue struct {
	sectors chan []byte
	done    chan struct{}
	cur     []byte
	once    sync.Once
}

var _ beep.Streamer = (*sectorQueue)(nil)

func newSectorQueue(depth int) *sectorQueue {
	return &sectorQueue{
		sectors: make(chan []byte, depth),
		done:    make(chan struct{}),
	}
}

func (q *sectorQueue) Write(p []byte) error {
	select {
	case <-q.done:
		return ErrSinkClosed
	default:
	}
	b := make([]byte, len(p)-len(p)%BytesPerFrame)
	copy(b, p)
	select {
	case q.sectors <- b:
		return nil
	case <-q.done:
		return ErrSinkClosed
	}
}

func (q *sectorQueue) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if len(q.cur) < BytesPerFrame {
			select {
			case q.cur = <-q.sectors:
			default:
				q.cur = nil
			}
		}
		if len(q.cur) < BytesPerFrame {
			samples[i] = [2]float64{}
			continue
		}
		samples[i], _ = Format.DecodeSigned(q.cur)
		q.cur = q.cur[BytesPerFrame:]
	}
	return len(samples), true
}

func (q *sectorQueue) Err() error {
	return nil
}

// drain waits until every queued sector was picked up by the stream, or
// the timeout passes.
func (q *sectorQueue) drain(timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for len(q.sectors) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

func (q *sectorQueue) close() {
	q.once.Do(func() { close(q.done) })
}
