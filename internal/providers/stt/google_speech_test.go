package stt

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func result(lang string, alts ...*speechpb.SpeechRecognitionAlternative) *speechpb.SpeechRecognitionResult {
	return &speechpb.SpeechRecognitionResult{LanguageCode: lang, Alternatives: alts}
}

func alt(text string, conf float32) *speechpb.SpeechRecognitionAlternative {
	return &speechpb.SpeechRecognitionAlternative{Transcript: text, Confidence: conf}
}

func TestBestTranscriptJoinsResults(t *testing.T) {
	got := bestTranscript([]*speechpb.SpeechRecognitionResult{
		result("hi-in", alt("namaste", 0.9), alt("namastey", 0.4)),
		result("hi-in", alt(" aap kaise hain ", 0.7)),
	}, "ta-IN")

	if got.Text != "namaste aap kaise hain" {
		t.Fatalf("text = %q", got.Text)
	}
	if got.Language != "hi-in" {
		t.Fatalf("language = %q", got.Language)
	}
	if got.Confidence < 0.69 || got.Confidence > 0.71 {
		t.Fatalf("confidence = %v", got.Confidence)
	}
}

func TestBestTranscriptEmpty(t *testing.T) {
	got := bestTranscript([]*speechpb.SpeechRecognitionResult{result("", alt("  ", 0.1))}, "ta-IN")
	if got.Text != "" || got.Confidence != 0 || got.Language != "ta-IN" {
		t.Fatalf("transcript = %+v", got)
	}
}

func TestRecognitionConfigAlternatives(t *testing.T) {
	g := &GoogleSpeech{SampleRateHz: 16000, Encoding: speechpb.RecognitionConfig_LINEAR16, Languages: []string{"ta-IN", "hi-IN"}}
	cfg := g.recognitionConfig()
	if cfg.LanguageCode != "ta-IN" || len(cfg.AlternativeLanguageCodes) != 1 || cfg.AlternativeLanguageCodes[0] != "hi-IN" {
		t.Fatalf("config = %+v", cfg)
	}
}
