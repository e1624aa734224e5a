// Package vad cuts a stream of PCM16 frames into caller utterances using
// signal energy.
package vad

import "math"

type Config struct {
	SampleRateHz int
	// EnergyThreshold is the RMS level (0..1) above which a frame is speech.
	EnergyThreshold float64
	// SilenceMs of trailing quiet ends an utterance.
	SilenceMs int
	// MinSpeechMs of voiced audio is needed before an utterance counts.
	MinSpeechMs int
	// MaxUtteranceMs forces a boundary on long monologues.
	MaxUtteranceMs int
}

func DefaultConfig(sampleRateHz int) Config {
	return Config{
		SampleRateHz:    sampleRateHz,
		EnergyThreshold: 0.02,
		SilenceMs:       700,
		MinSpeechMs:     200,
		MaxUtteranceMs:  15000,
	}
}

// Segmenter is not safe for concurrent use; each call owns one.
type Segmenter struct {
	cfg Config

	buf        []byte
	speechMs   int
	silenceMs  int
	inSpeech   bool
	bytesPerMs float64
}

func NewSegmenter(cfg Config) *Segmenter {
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = 16000
	}
	d := DefaultConfig(cfg.SampleRateHz)
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = d.EnergyThreshold
	}
	if cfg.SilenceMs <= 0 {
		cfg.SilenceMs = d.SilenceMs
	}
	if cfg.MinSpeechMs <= 0 {
		cfg.MinSpeechMs = d.MinSpeechMs
	}
	if cfg.MaxUtteranceMs <= 0 {
		cfg.MaxUtteranceMs = d.MaxUtteranceMs
	}
	return &Segmenter{cfg: cfg, bytesPerMs: float64(cfg.SampleRateHz) * 2 / 1000}
}

// InSpeech reports whether the caller is currently talking.
func (s *Segmenter) InSpeech() bool { return s.inSpeech }

// Push feeds one frame and returns a completed utterance when this frame
// closes one.
func (s *Segmenter) Push(frame []byte) ([]byte, bool) {
	if len(frame) < 2 {
		return nil, false
	}
	ms := int(float64(len(frame)) / s.bytesPerMs)
	voiced := RMSEnergy(frame) >= s.cfg.EnergyThreshold

	switch {
	case voiced:
		s.inSpeech = true
		s.speechMs += ms
		s.silenceMs = 0
		s.buf = append(s.buf, frame...)
	case s.inSpeech:
		s.silenceMs += ms
		s.buf = append(s.buf, frame...)
	default:
		return nil, false
	}

	total := int(float64(len(s.buf)) / s.bytesPerMs)
	if s.silenceMs >= s.cfg.SilenceMs || total >= s.cfg.MaxUtteranceMs {
		return s.Flush()
	}
	return nil, false
}

// Flush closes the current utterance at an explicit boundary. Audio shorter
// than MinSpeechMs of speech is dropped as noise.
func (s *Segmenter) Flush() ([]byte, bool) {
	out, speech := s.buf, s.speechMs
	s.Reset()
	if speech < s.cfg.MinSpeechMs || len(out) == 0 {
		return nil, false
	}
	return out, true
}

func (s *Segmenter) Reset() {
	s.buf = nil
	s.speechMs = 0
	s.silenceMs = 0
	s.inSpeech = false
}

// RMSEnergy is the root-mean-square of 16-bit little-endian PCM, in 0..1.
func RMSEnergy(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		v := float64(int16(uint16(pcm[i])|uint16(pcm[i+1])<<8)) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
