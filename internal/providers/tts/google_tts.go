package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

type GoogleTTS struct {
	c *texttospeech.Client

	SampleRateHz int32
	selector     *Selector
}

func NewGoogleTTS(ctx context.Context, sampleRateHz int32, selector *Selector) (*GoogleTTS, error) {
	if selector == nil {
		return nil, errors.New("tts: voice selector is required")
	}
	c, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 16000
	}
	return &GoogleTTS{c: c, SampleRateHz: sampleRateHz, selector: selector}, nil
}

func (g *GoogleTTS) Close() error { return g.c.Close() }

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (Synthesis, error) {
	voice := g.selector.Select(text)

	resp, err := g.c.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.Language,
			Name:         voice.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: g.SampleRateHz,
		},
	})
	if err != nil {
		return Synthesis{}, err
	}
	return Synthesis{
		Audio:    stripWAVHeader(resp.GetAudioContent()),
		Language: voice.Language,
		Voice:    voice.Name,
	}, nil
}

// stripWAVHeader returns the samples of the RIFF "data" chunk, or b unchanged
// when it is not a RIFF container.
func stripWAVHeader(b []byte) []byte {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return b
	}
	off := 12
	for off+8 <= len(b) {
		id := b[off : off+4]
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		off += 8
		if bytes.Equal(id, []byte("data")) {
			end := off + size
			if end > len(b) || size == 0 {
				end = len(b)
			}
			return b[off:end]
		}
		off += size + size%2
	}
	return b
}
