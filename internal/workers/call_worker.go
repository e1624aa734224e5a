package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/yootranslate/internal/models"
	"github.com/yoockh/yootranslate/internal/providers/llm"
	"github.com/yoockh/yootranslate/internal/providers/vad"
	"github.com/yoockh/yootranslate/internal/room"
	"github.com/yoockh/yootranslate/internal/tools"
	"github.com/yoockh/yootranslate/internal/utils"
)

const (
	reasonDisconnect = "disconnect"
	reasonShutdown   = "shutdown"

	recordTimeout = 10 * time.Second
	hangupTimeout = 5 * time.Second
)

// turn is one in-flight pipeline run. Until it locks in, a newer utterance
// may cancel it; after that it runs to completion unless the call drops.
type turn struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	res    turnResult

	mu       sync.Mutex
	locked   bool
	canceled bool
}

type turnResult struct {
	terminate bool
}

func (t *turn) lockIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		return false
	}
	t.locked = true
	return true
}

func (t *turn) interrupt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locked {
		return false
	}
	t.canceled = true
	t.cancel()
	return true
}

type callWorker struct {
	deps    *Deps
	session *models.CallSession
	room    room.Room
	seg     *vad.Segmenter
	log     *logrus.Entry

	cancel context.CancelFunc

	records     chan func(context.Context) error
	recordsDone chan struct{}
	hangupOnce  sync.Once
}

func newCallWorker(d *Deps, r room.Room) *callWorker {
	s := models.NewCallSession(d.NewID(), r.Name(), r.Identity())
	return &callWorker{
		deps:    d,
		session: s,
		room:    r,
		seg:     vad.NewSegmenter(d.VAD),
		log: d.Logger.WithFields(logrus.Fields{
			"session_id": s.ID(),
			"room":       s.Room(),
			"identity":   s.Identity(),
		}),
		records:     make(chan func(context.Context) error, 64),
		recordsDone: make(chan struct{}),
	}
}

// run drives the call until end_call, disconnect or ctx cancellation and
// returns the final snapshot.
func (w *callWorker) run(ctx context.Context) models.CallSnapshot {
	go w.recordLoop()
	defer func() {
		close(w.records)
		<-w.recordsDone
	}()

	w.session.Activate(w.deps.Now())
	w.log.Info("call started")
	started := w.session.Snapshot()
	w.record(func(rctx context.Context) error { return w.deps.Recorder.CallStarted(rctx, started) })

	var (
		cur     = w.start(ctx, nil)
		pending []byte
		reason  string
		inbound = w.room.Inbound()
	)

loop:
	for {
		var turnDone <-chan struct{}
		if cur != nil {
			turnDone = cur.done
		}

		select {
		case <-ctx.Done():
			reason = reasonShutdown
			break loop

		case <-w.room.Done():
			reason = reasonDisconnect
			break loop

		case <-turnDone:
			res := cur.res
			cur = nil
			if res.terminate {
				w.hangUp()
				reason = tools.EndCallName
				break loop
			}
			if pending != nil && w.session.Active() {
				cur = w.start(ctx, pending)
				pending = nil
			}

		case f, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			if !w.session.Active() {
				continue
			}
			utt, ready := w.segment(f)
			if !ready {
				continue
			}
			if cur != nil {
				if !cur.interrupt() {
					pending = append(pending, utt...)
					continue
				}
				<-cur.done
				w.log.Info("turn interrupted by new utterance")
			}
			cur = w.start(ctx, utt)
		}
	}

	if cur != nil {
		cur.cancel()
		<-cur.done
	}
	if w.session.End(reason, w.deps.Now()) {
		w.log.WithField("reason", reason).Info("call ended")
	}
	if reason == reasonShutdown {
		_ = w.room.Close(reasonShutdown)
	}

	final := w.session.Snapshot()
	history := w.session.History()
	w.record(func(rctx context.Context) error { return w.deps.Recorder.CallEnded(rctx, final, history) })
	return final
}

func (w *callWorker) segment(f room.Frame) ([]byte, bool) {
	switch f.Kind {
	case room.FrameAudio:
		return w.seg.Push(f.Audio)
	case room.FrameBoundary:
		return w.seg.Flush()
	default:
		return nil, false
	}
}

func (w *callWorker) start(ctx context.Context, utterance []byte) *turn {
	tctx, cancel := context.WithCancel(ctx)
	t := &turn{ctx: tctx, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if p := recover(); p != nil {
				w.log.WithField("panic", fmt.Sprint(p)).Error("turn panicked")
			}
		}()

		if utterance == nil {
			w.greet(t)
			return
		}
		t.res = w.process(t, utterance)
	}()
	return t
}

func (w *callWorker) turnContext(t *turn) (context.Context, context.CancelFunc) {
	return context.WithTimeout(t.ctx, w.deps.TurnTimeout)
}

func (w *callWorker) greet(t *turn) {
	if w.deps.Greeting == "" {
		return
	}
	ctx, cancel := w.turnContext(t)
	defer cancel()

	lang, ok := w.emit(ctx, t, w.deps.Greeting)
	if !ok {
		return
	}
	w.commit(models.Turn{Role: models.RoleAssistant, Content: w.deps.Greeting, Language: lang})
}

// process runs STT, LLM, tools and TTS for one utterance. History changes only
// after the response audio has been handed to the room.
func (w *callWorker) process(t *turn, audio []byte) turnResult {
	ctx, cancel := w.turnContext(t)
	defer cancel()

	tr, err := w.deps.STT.Transcribe(ctx, audio)
	if t.ctx.Err() != nil {
		return turnResult{}
	}
	if err != nil {
		w.log.WithError(fmt.Errorf("%w: %v", utils.ErrTranscription, err)).Warn("stt failed")
		w.speakFallback(t)
		return turnResult{}
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return turnResult{}
	}

	caller := models.Turn{
		Role:      models.RoleCaller,
		Content:   text,
		Language:  tr.Language,
		Timestamp: w.deps.Now(),
	}
	w.log.WithFields(logrus.Fields{
		"role":       caller.Role,
		"language":   caller.Language,
		"confidence": tr.Confidence,
		"content":    caller.Content,
	}).Info("caller utterance")

	reply, err := w.deps.LLM.Respond(ctx, llm.Request{History: w.session.History(), Utterance: text})
	if t.ctx.Err() != nil {
		return turnResult{}
	}
	if err != nil {
		w.log.WithError(fmt.Errorf("%w: %v", utils.ErrTranslation, err)).Warn("llm failed")
		w.speakFallback(t)
		return turnResult{}
	}

	assistant := models.Turn{Role: models.RoleAssistant, Content: reply.Text}
	var res turnResult
	if reply.ToolCall != nil {
		if !t.lockIn() {
			return turnResult{}
		}
		out, err := w.deps.Tools.Invoke(ctx, w.session, *reply.ToolCall)
		assistant.Content = out.Text
		res.terminate = out.Terminate
		entry := w.log.WithFields(logrus.Fields{
			"tool":      reply.ToolCall.Name,
			"terminate": out.Terminate,
		})
		switch {
		case errors.Is(err, utils.ErrUnknownTool):
			// history only carries calls to declared functions
			entry.WithField("unknown_tool", true).Warn("tool not registered")
		case err != nil:
			assistant.ToolCall = reply.ToolCall
			entry.WithError(err).Warn("tool failed")
		default:
			assistant.ToolCall = reply.ToolCall
			entry.Info("tool invoked")
		}
	}

	lang, ok := w.emit(ctx, t, assistant.Content)
	if !ok {
		return res
	}
	assistant.Language = lang
	w.commit(caller, assistant)
	return res
}

func (w *callWorker) speakFallback(t *turn) {
	if w.deps.Fallback == "" {
		return
	}
	ctx, cancel := w.turnContext(t)
	defer cancel()
	w.emit(ctx, t, w.deps.Fallback)
}

// emit synthesizes text and publishes it into the room. It reports the spoken
// language and whether the audio reached the room.
func (w *callWorker) emit(ctx context.Context, t *turn, text string) (string, bool) {
	syn, err := w.deps.TTS.Synthesize(ctx, text)
	if t.ctx.Err() != nil {
		return "", false
	}
	if err != nil {
		w.log.WithError(fmt.Errorf("%w: %v", utils.ErrSynthesis, err)).Warn("tts failed")
		return "", false
	}
	if !t.lockIn() {
		return "", false
	}
	if err := w.room.Publish(ctx, syn.Audio); err != nil {
		w.log.WithError(err).Warn("failed to publish audio")
		return "", false
	}
	return syn.Language, true
}

func (w *callWorker) commit(turns ...models.Turn) {
	committed := w.session.Append(w.deps.Now(), turns...)
	for _, c := range committed {
		f := logrus.Fields{
			"turn":     c.Seq,
			"role":     c.Role,
			"language": c.Language,
			"content":  c.Content,
		}
		if c.ToolCall != nil {
			f["tool"] = c.ToolCall.Name
		}
		w.log.WithFields(f).Info("transcript")
	}
	snap := w.session.Snapshot()
	w.record(func(rctx context.Context) error { return w.deps.Recorder.TurnsCommitted(rctx, snap, committed) })
}

// hangUp leaves the room after the farewell audio was published.
func (w *callWorker) hangUp() {
	w.hangupOnce.Do(func() {
		_ = w.room.Close(tools.EndCallName)
		if w.deps.Admin == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), hangupTimeout)
		defer cancel()
		if err := w.deps.Admin.RemoveParticipant(ctx, w.room.Name(), w.room.Identity()); err != nil {
			w.log.WithError(err).Warn("failed to remove participant from media room")
		}
	})
}

func (w *callWorker) record(fn func(context.Context) error) {
	if w.deps.Recorder == nil {
		return
	}
	w.records <- fn
}

func (w *callWorker) recordLoop() {
	defer close(w.recordsDone)
	for fn := range w.records {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := fn(ctx); err != nil {
			w.log.WithError(err).Warn("failed to record call")
		}
		cancel()
	}
}
