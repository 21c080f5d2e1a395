package arm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/zaf/g711"

	"github.com/cpmpercussion/comp2300-discoserver/internal/logger"
)

// audioQueueDepth bounds the producer/consumer sample queue: the emulator
// core is the producer (via symbol interception of the firmware's
// audio_play_sample entry point) and the WAV encoder goroutine is the sole
// consumer. Once the queue is full, pushing blocks, which is the throttle
// that keeps emulated playback from racing ahead of real time and the only
// blocking point in the emulator's main loop.
const audioQueueDepth = 32

// encodeChunk is how many queued samples drain() accumulates before handing
// a batch to the WAV encoder, so that a 1Hz-ish sample-at-a-time firmware
// loop doesn't turn into a write syscall per sample.
const encodeChunk = 256

// AudioSink is a bounded single-producer/single-consumer channel of 16-bit
// PCM samples wired to a go-audio WAV encoder. It is optional: an ARM with
// no AudioSink attached just drops calls to the audio_play_sample intercept
// (see symbols.go).
type AudioSink struct {
	sampleRate int
	samples    chan int16
	done       chan struct{}

	file     *os.File
	enc      *wav.Encoder
	observer chan<- int16

	// compander is an optional second output: a streaming G.711 encoder
	// wrapping its own file, used when the operator wants a bandwidth-
	// constrained capture (the same trade-off the board's telephony-grade
	// audio DAC would make) instead of linear 16-bit PCM.
	companderFile *os.File
	compander     io.Writer
}

// NewAudioSink creates a sink with no recording destination configured yet,
// and immediately starts its drain goroutine: PushSample must never block
// forever just because the caller hasn't chosen an output file, since it is
// the emulator's one permitted blocking point and a stalled drain would wedge
// the whole core.
func NewAudioSink(sampleRate int) *AudioSink {
	s := &AudioSink{
		sampleRate: sampleRate,
		samples:    make(chan int16, audioQueueDepth),
		done:       make(chan struct{}),
	}
	go s.drain()
	return s
}

// RecordTo opens path as a mono 16-bit WAV file that the already-running
// drain goroutine starts encoding queued samples into.
func (s *AudioSink) RecordTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	s.file = f
	s.enc = wav.NewEncoder(f, s.sampleRate, 16, 1, 1)
	return nil
}

func (s *AudioSink) drain() {
	batch := make([]int, 0, encodeChunk)
	var companded [2]byte
	flush := func() {
		if len(batch) == 0 || s.enc == nil {
			return
		}
		buf := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: s.sampleRate},
			Data:           batch,
			SourceBitDepth: 16,
		}
		if err := s.enc.Write(buf); err != nil {
			logger.Logf(logger.Allow, "audio", "wav encode failed: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case sample, ok := <-s.samples:
			if !ok {
				flush()
				return
			}
			batch = append(batch, int(sample))
			if len(batch) == encodeChunk {
				flush()
			}
			if s.compander != nil {
				binary.LittleEndian.PutUint16(companded[:], uint16(sample))
				if _, err := s.compander.Write(companded[:]); err != nil {
					logger.Logf(logger.Allow, "audio", "g711 encode failed: %v", err)
				}
			}
		case <-s.done:
			flush()
			return
		}
	}
}

// RecordCompandedTo opens path and, alongside any WAV capture already
// started with RecordTo, streams every sample through a G.711 encoder
// (law is "a" or "u") before writing it - a bandwidth-constrained capture
// format for comparing against the board's telephony-grade audio path.
func (s *AudioSink) RecordCompandedTo(path string, law string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	s.companderFile = f

	switch law {
	case "a":
		s.compander, err = g711.NewAlawEncoder(f)
	case "u":
		s.compander, err = g711.NewUlawEncoder(f)
	default:
		err = fmt.Errorf("audio: unknown companding law %q, want \"a\" or \"u\"", law)
	}
	if err != nil {
		f.Close()
		s.companderFile = nil
		return err
	}
	return nil
}

// Close stops the drain goroutine and finalizes the WAV file, if one is
// open.
func (s *AudioSink) Close() error {
	close(s.done)
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			return err
		}
	}
	if s.companderFile != nil {
		s.companderFile.Close()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// PushSample enqueues one 16-bit sample, blocking once audioQueueDepth
// samples are already queued and not yet consumed by the drain goroutine.
// This is the emulator's sole blocking point outside of its own step loop.
func (s *AudioSink) PushSample(sample int16) {
	s.samples <- sample
	if s.observer != nil {
		s.observer <- sample
	}
}

// Observe registers ch to additionally receive every sample pushed from
// here on, used by the command-line sample-capture mode (armemu -sample-start/-sample-count)
// to collect a fixed range of samples synchronously without going through
// a file encoder at all. Sends to ch block exactly like the main queue, so
// the caller is responsible for draining it promptly.
func (s *AudioSink) Observe(ch chan<- int16) {
	s.observer = ch
}
