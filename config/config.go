// Package config loads process configuration from the environment. A .env file
// is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrNotConfigured is returned by the Init helpers when the backend's URI is unset.
var ErrNotConfigured = errors.New("not configured")

type Config struct {
	Server    ServerConfig
	LiveKit   LiveKitConfig
	Admission AdmissionConfig
	Call      CallConfig
	Google    GoogleConfig
	Ops       OpsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type LiveKitConfig struct {
	URL       string // optional; enables room administration
	APIKey    string
	APISecret string
}

type AdmissionConfig struct {
	DefaultRoom string
	TokenTTL    time.Duration
}

type CallConfig struct {
	// Languages are BCP-47 codes; the first is the recognizer's primary language.
	Languages     []string
	Instructions  string
	Greeting      string
	Farewell      string
	Fallback      string
	TurnTimeout   time.Duration
	TranscriptTTL time.Duration
}

type GoogleConfig struct {
	ProjectID     string
	Location      string
	LLMModel      string
	Temperature   float32
	SampleRateHz  int32
	TTSVoices     map[string]string // language -> voice name
	ArchiveBucket string            // optional
}

type OpsConfig struct {
	JWTSecret string // empty disables the ops endpoints
}

const defaultInstructions = "You are a live interpreter on a phone call between two people who speak %s. " +
	"When you receive speech in one of these languages, reply only with its translation into the other one. " +
	"Wait for the next input after each translation. Be polite. " +
	"Always answer in the language you translated into. Reply in plain text without formatting. " +
	"When the caller says goodbye or asks to hang up, call the end_call tool."

func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "5001"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	turnTimeout, err := time.ParseDuration(getEnv("TURN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TURN_TIMEOUT: %w", err)
	}
	transcriptTTL, err := time.ParseDuration(getEnv("TRANSCRIPT_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRANSCRIPT_TTL: %w", err)
	}
	temp, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.7"), 32)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}
	rate, err := strconv.ParseInt(getEnv("AUDIO_SAMPLE_RATE", "16000"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_SAMPLE_RATE: %w", err)
	}

	languages := splitList(getEnv("CALL_LANGUAGES", "ta-IN,hi-IN"))
	if len(languages) < 2 {
		return nil, errors.New("CALL_LANGUAGES must list at least two languages")
	}
	voices, err := parseVoices(getEnv("TTS_VOICES", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("HOST", "0.0.0.0"),
			Port: port,
		},
		LiveKit: LiveKitConfig{
			URL:       getEnv("LIVEKIT_URL", ""),
			APIKey:    getEnv("LIVEKIT_API_KEY", ""),
			APISecret: getEnv("LIVEKIT_API_SECRET", ""),
		},
		Admission: AdmissionConfig{
			DefaultRoom: getEnv("DEFAULT_ROOM", "call-main"),
			TokenTTL:    tokenTTL,
		},
		Call: CallConfig{
			Languages:     languages,
			Instructions:  getEnv("CALL_INSTRUCTIONS", fmt.Sprintf(defaultInstructions, strings.Join(languages, " and "))),
			Greeting:      getEnv("CALL_GREETING", "Hello, I will translate for you. Please go ahead."),
			Farewell:      getEnv("CALL_FAREWELL", "Thank you for calling. Have a great day! Goodbye!"),
			Fallback:      getEnv("CALL_FALLBACK", "Sorry, could you please repeat that?"),
			TurnTimeout:   turnTimeout,
			TranscriptTTL: transcriptTTL,
		},
		Google: GoogleConfig{
			ProjectID:     getEnv("GOOGLE_CLOUD_PROJECT", ""),
			Location:      getEnv("GOOGLE_CLOUD_LOCATION", "us-central1"),
			LLMModel:      getEnv("LLM_MODEL", "gemini-1.5-flash"),
			Temperature:   float32(temp),
			SampleRateHz:  int32(rate),
			TTSVoices:     voices,
			ArchiveBucket: getEnv("TRANSCRIPT_BUCKET", ""),
		},
		Ops: OpsConfig{
			JWTSecret: getEnv("OPS_JWT_SECRET", ""),
		},
	}
	return cfg, nil
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseVoices reads "ta-IN=ta-IN-Wavenet-A,hi-IN=hi-IN-Wavenet-A".
func parseVoices(v string) (map[string]string, error) {
	out := map[string]string{}
	for _, item := range splitList(v) {
		lang, voice, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(lang) == "" {
			return nil, fmt.Errorf("invalid TTS_VOICES entry %q", item)
		}
		out[strings.TrimSpace(lang)] = strings.TrimSpace(voice)
	}
	return out, nil
}
