package stt

import (
	"context"
	"errors"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
	// Languages[0] is the primary language; the rest are alternatives the
	// recognizer may pick per utterance.
	Languages []string
}

func NewGoogleSpeech(ctx context.Context, sampleRateHz int32, languages []string) (*GoogleSpeech, error) {
	if len(languages) == 0 {
		return nil, errors.New("stt: at least one language is required")
	}
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	if sampleRateHz <= 0 {
		sampleRateHz = 16000
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: sampleRateHz,
		Languages:    languages,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (Transcript, error) {
	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: g.recognitionConfig(),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return Transcript{}, err
	}
	return bestTranscript(resp.GetResults(), g.Languages[0]), nil
}

func (g *GoogleSpeech) recognitionConfig() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		Encoding:                   g.Encoding,
		SampleRateHertz:            g.SampleRateHz,
		LanguageCode:               g.Languages[0],
		AlternativeLanguageCodes:   g.Languages[1:],
		EnableAutomaticPunctuation: true,
	}
}

// bestTranscript joins the top alternative of each result. Confidence is the
// lowest across results; language is the first one reported.
func bestTranscript(results []*speechpb.SpeechRecognitionResult, fallbackLang string) Transcript {
	var parts []string
	out := Transcript{Confidence: 1}
	for _, r := range results {
		alts := r.GetAlternatives()
		if len(alts) == 0 || strings.TrimSpace(alts[0].GetTranscript()) == "" {
			continue
		}
		parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		if c := float64(alts[0].GetConfidence()); c < out.Confidence {
			out.Confidence = c
		}
		if out.Language == "" && r.GetLanguageCode() != "" {
			out.Language = r.GetLanguageCode()
		}
	}
	if len(parts) == 0 {
		return Transcript{Language: fallbackLang}
	}
	out.Text = strings.Join(parts, " ")
	if out.Language == "" {
		out.Language = fallbackLang
	}
	return out
}
