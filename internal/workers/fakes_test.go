package workers

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yoockh/yootranslate/internal/logger"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/providers/llm"
	"github.com/yoockh/yootranslate/internal/providers/stt"
	"github.com/yoockh/yootranslate/internal/providers/tts"
	"github.com/yoockh/yootranslate/internal/providers/vad"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/tools"
	"github.com/yoockh/yootranslate/internal/utils"
)

const (
	greeting = "Hello, I will translate for you."
	farewell = "Thank you for calling. Have a great day! Goodbye!"
	fallback = "Sorry, could you please repeat that?"

	waitFor = 3 * time.Second
)

var selector = tts.NewSelector([]string{"ta-IN", "hi-IN"}, nil)

// speech encodes text as one loud 100ms PCM frame the fake recognizer can read back.
func speech(text string) []byte {
	b := bytes.Repeat([]byte{0x7f}, 3200)
	copy(b, text)
	return b
}

type fakeRoom struct {
	in   chan room.Frame
	done chan struct{}
	pubs chan string

	// hold, when set for an audio payload, blocks Publish until closed;
	// held receives the payload first.
	hold map[string]chan struct{}
	held chan string

	mu        sync.Mutex
	events    []string
	closeOnce sync.Once
}

func newFakeRoom() *fakeRoom {
	return &fakeRoom{
		in:   make(chan room.Frame, 32),
		done: make(chan struct{}),
		pubs: make(chan string, 32),
		hold: map[string]chan struct{}{},
		held: make(chan string, 4),
	}
}

func (r *fakeRoom) Name() string               { return "call-main" }
func (r *fakeRoom) Identity() string           { return "alice" }
func (r *fakeRoom) Inbound() <-chan room.Frame { return r.in }
func (r *fakeRoom) Done() <-chan struct{}      { return r.done }

func (r *fakeRoom) Publish(ctx context.Context, audio []byte) error {
	select {
	case <-r.done:
		return utils.ErrRoomClosed
	default:
	}
	if g, ok := r.hold[string(audio)]; ok {
		r.held <- string(audio)
		select {
		case <-g:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	r.events = append(r.events, "publish:"+string(audio))
	r.mu.Unlock()
	r.pubs <- string(audio)
	return nil
}

func (r *fakeRoom) Close(reason string) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.events = append(r.events, "close:"+reason)
		r.mu.Unlock()
		close(r.done)
	})
	return nil
}

func (r *fakeRoom) disconnect() {
	r.closeOnce.Do(func() { close(r.done) })
}

func (r *fakeRoom) say(text string) {
	r.in <- room.Frame{Kind: room.FrameAudio, Audio: speech(text)}
	r.in <- room.Frame{Kind: room.FrameBoundary}
}

// settle returns once the call loop has taken every frame sent before it.
// It relies on an unbuffered inbound channel.
func (r *fakeRoom) settle() {
	r.in <- room.Frame{Kind: room.FrameBoundary}
}

func (r *fakeRoom) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeSTT struct {
	calls atomic.Int32
	fail  map[string]bool
}

func (f *fakeSTT) Transcribe(_ context.Context, audio []byte) (stt.Transcript, error) {
	f.calls.Add(1)
	text := string(bytes.TrimRight(audio, "\x7f"))
	if f.fail[text] {
		return stt.Transcript{}, errors.New("recognizer unavailable")
	}
	return stt.Transcript{Text: text, Confidence: 0.9, Language: selector.Select(text).Language}, nil
}

func (f *fakeSTT) Close() error { return nil }

type fakeLLM struct {
	respond func(ctx context.Context, req llm.Request) (llm.Reply, error)

	mu   sync.Mutex
	reqs []llm.Request
}

func (f *fakeLLM) Respond(ctx context.Context, req llm.Request) (llm.Reply, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	return f.respond(ctx, req)
}

func (f *fakeLLM) Close() error { return nil }

type fakeTTS struct {
	// gate, when set for a text, blocks synthesis until closed; entered
	// receives the text first.
	gate    map[string]chan struct{}
	entered chan string
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) (tts.Synthesis, error) {
	if g, ok := f.gate[text]; ok {
		f.entered <- text
		select {
		case <-g:
		case <-ctx.Done():
			return tts.Synthesis{}, ctx.Err()
		}
	}
	return tts.Synthesis{Audio: []byte(text), Language: selector.Select(text).Language}, nil
}

func (f *fakeTTS) Close() error { return nil }

type fakeAdmin struct {
	mu      sync.Mutex
	removed []string
}

func (a *fakeAdmin) RemoveParticipant(_ context.Context, r, identity string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, r+"/"+identity)
	return nil
}

func (a *fakeAdmin) ListRooms(context.Context) ([]room.RoomInfo, error) { return nil, nil }

type fakeRecorder struct {
	mu      sync.Mutex
	events  []string
	history []models.Turn
}

func (f *fakeRecorder) CallStarted(context.Context, models.CallSnapshot) error {
	f.add("started")
	return nil
}

func (f *fakeRecorder) TurnsCommitted(_ context.Context, _ models.CallSnapshot, turns []models.Turn) error {
	for range turns {
		f.add("turn")
	}
	return nil
}

func (f *fakeRecorder) CallEnded(_ context.Context, _ models.CallSnapshot, history []models.Turn) error {
	f.mu.Lock()
	f.history = history
	f.mu.Unlock()
	f.add("ended")
	return nil
}

func (f *fakeRecorder) add(ev string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

type harness struct {
	room   *fakeRoom
	stt    *fakeSTT
	llm    *fakeLLM
	tts    *fakeTTS
	admin  *fakeAdmin
	rec    *fakeRecorder
	mgr    *Manager
	result chan models.CallSnapshot
}

func newHarness(t *testing.T, respond func(ctx context.Context, req llm.Request) (llm.Reply, error)) *harness {
	t.Helper()
	h := &harness{
		room:   newFakeRoom(),
		stt:    &fakeSTT{fail: map[string]bool{}},
		llm:    &fakeLLM{respond: respond},
		tts:    &fakeTTS{gate: map[string]chan struct{}{}, entered: make(chan string, 4)},
		admin:  &fakeAdmin{},
		rec:    &fakeRecorder{},
		result: make(chan models.CallSnapshot, 1),
	}
	mgr, err := NewManager(Deps{
		STT:         h.stt,
		LLM:         h.llm,
		TTS:         h.tts,
		Tools:       tools.NewRegistry(fallback, logger.Discard(), &tools.EndCall{Farewell: farewell}),
		Recorder:    h.rec,
		Admin:       h.admin,
		VAD:         vad.Config{SampleRateHz: 16000, MinSpeechMs: 50, SilenceMs: 10000, MaxUtteranceMs: 60000},
		Greeting:    greeting,
		Fallback:    fallback,
		TurnTimeout: 5 * time.Second,
		Logger:      logger.Discard(),
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	h.mgr = mgr
	return h
}

func (h *harness) start(ctx context.Context) {
	go func() {
		snap, _ := h.mgr.Serve(ctx, h.room)
		h.result <- snap
	}()
}

func (h *harness) wait(t *testing.T) models.CallSnapshot {
	t.Helper()
	select {
	case s := <-h.result:
		return s
	case <-time.After(waitFor):
		t.Fatal("call did not end")
		return models.CallSnapshot{}
	}
}

func (h *harness) expectPublish(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-h.room.pubs:
		if got != want {
			t.Fatalf("published %q, want %q", got, want)
		}
	case <-time.After(waitFor):
		t.Fatalf("nothing published, want %q", want)
	}
}

func (h *harness) history() []models.Turn {
	h.rec.mu.Lock()
	defer h.rec.mu.Unlock()
	return h.rec.history
}

func echo(reply string) func(context.Context, llm.Request) (llm.Reply, error) {
	return func(context.Context, llm.Request) (llm.Reply, error) {
		return llm.Reply{Text: reply}, nil
	}
}
