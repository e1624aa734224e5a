package workers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/providers/llm"
	"github.com/yoockh/yootranslate/internal/providers/stt"
	"github.com/yoockh/yootranslate/internal/providers/tts"
	"github.com/yoockh/yootranslate/internal/providers/vad"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/services"
	"github.com/yoockh/yootranslate/internal/tools"
	"github.com/yoockh/yootranslate/internal/utils"
)

// Deps is everything a call needs. Recorder and Admin are optional.
type Deps struct {
	STT   stt.Provider
	LLM   llm.Provider
	TTS   tts.Provider
	Tools *tools.Registry

	Recorder services.CallRecorder
	Admin    room.Admin

	VAD         vad.Config
	Greeting    string
	Fallback    string
	TurnTimeout time.Duration

	Logger *logrus.Logger
	NewID  func() string
	Now    func() time.Time
}

// Manager runs one worker per call and indexes live calls by session id.
type Manager struct {
	deps Deps

	mu      sync.RWMutex
	calls   map[string]*callWorker
	closing bool
	wg      sync.WaitGroup
}

func NewManager(d Deps) (*Manager, error) {
	if d.STT == nil || d.LLM == nil || d.TTS == nil || d.Tools == nil {
		return nil, errors.New("call manager missing dependency: STT/LLM/TTS/Tools must be set")
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.TurnTimeout <= 0 {
		d.TurnTimeout = 30 * time.Second
	}
	return &Manager{deps: d, calls: map[string]*callWorker{}}, nil
}

// Serve runs a call in r until it ends and returns the final snapshot.
func (m *Manager) Serve(ctx context.Context, r room.Room) (models.CallSnapshot, error) {
	const op = "Manager.Serve"

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return models.CallSnapshot{}, utils.E(utils.CodeUnavailable, op, "server is shutting down", nil)
	}
	w := newCallWorker(&m.deps, r)
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	m.calls[w.session.ID()] = w
	m.wg.Add(1)
	m.mu.Unlock()

	defer func() {
		cancel()
		m.mu.Lock()
		delete(m.calls, w.session.ID())
		m.mu.Unlock()
		m.wg.Done()
	}()

	return w.run(ctx), nil
}

// Snapshots lists live calls, oldest first.
func (m *Manager) Snapshots() []models.CallSnapshot {
	m.mu.RLock()
	out := make([]models.CallSnapshot, 0, len(m.calls))
	for _, w := range m.calls {
		out = append(out, w.session.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// Shutdown ends every live call and waits for their workers to finish.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closing = true
	for _, w := range m.calls {
		w.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
