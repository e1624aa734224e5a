package room

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yootranslate/internal/utils"
)

const (
	ctrlSpeechEnd = "speech_end"
	ctrlHangup    = "hangup"

	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 20 * time.Second

	// 100ms of 16kHz PCM16 per binary message.
	publishChunk = 3200
)

var audioEnd = []byte(`{"type":"audio_end"}`)

// WSRoom bridges a WebSocket client into a call. Binary messages are PCM16
// frames; text messages are control words.
type WSRoom struct {
	conn     *websocket.Conn
	name     string
	identity string
	log      *logrus.Entry

	inbound chan Frame
	done    chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	reasonMu  sync.Mutex
	reason    string
}

func NewWSRoom(conn *websocket.Conn, name, identity string, log *logrus.Logger) *WSRoom {
	r := &WSRoom{
		conn:     conn,
		name:     name,
		identity: identity,
		log:      log.WithFields(logrus.Fields{"room": name, "identity": identity}),
		inbound:  make(chan Frame, 64),
		done:     make(chan struct{}),
	}
	go r.readLoop()
	go r.pingLoop()
	return r
}

func (r *WSRoom) Name() string          { return r.name }
func (r *WSRoom) Identity() string      { return r.identity }
func (r *WSRoom) Inbound() <-chan Frame { return r.inbound }
func (r *WSRoom) Done() <-chan struct{} { return r.done }

// Reason reports why the room closed, or "" while it is open.
func (r *WSRoom) Reason() string {
	r.reasonMu.Lock()
	defer r.reasonMu.Unlock()
	return r.reason
}

func (r *WSRoom) Publish(ctx context.Context, audio []byte) error {
	const op = "WSRoom.Publish"

	for off := 0; off < len(audio); off += publishChunk {
		end := min(off+publishChunk, len(audio))
		if err := r.checkOpen(ctx); err != nil {
			return utils.E(utils.CodeUnavailable, op, "room closed", err)
		}
		if err := r.write(websocket.BinaryMessage, audio[off:end]); err != nil {
			r.shutdown("transport_error")
			return utils.E(utils.CodeUnavailable, op, "write failed", err)
		}
	}
	if err := r.checkOpen(ctx); err != nil {
		return utils.E(utils.CodeUnavailable, op, "room closed", err)
	}
	if err := r.write(websocket.TextMessage, audioEnd); err != nil {
		r.shutdown("transport_error")
		return utils.E(utils.CodeUnavailable, op, "write failed", err)
	}
	return nil
}

func (r *WSRoom) Close(reason string) error {
	r.writeMu.Lock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = r.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	r.writeMu.Unlock()
	r.shutdown(reason)
	return nil
}

func (r *WSRoom) checkOpen(ctx context.Context) error {
	select {
	case <-r.done:
		return utils.ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (r *WSRoom) write(kind int, b []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return r.conn.WriteMessage(kind, b)
}

func (r *WSRoom) shutdown(reason string) {
	r.closeOnce.Do(func() {
		r.reasonMu.Lock()
		r.reason = reason
		r.reasonMu.Unlock()
		close(r.done)
		_ = r.conn.Close()
		r.log.WithField("reason", reason).Info("room connection closed")
	})
}

func (r *WSRoom) readLoop() {
	defer r.shutdown("disconnect")

	_ = r.conn.SetReadDeadline(time.Now().Add(readTimeout))
	r.conn.SetPongHandler(func(string) error {
		return r.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		kind, data, err := r.conn.ReadMessage()
		if err != nil {
			return
		}
		_ = r.conn.SetReadDeadline(time.Now().Add(readTimeout))

		var f Frame
		switch kind {
		case websocket.BinaryMessage:
			f = Frame{Kind: FrameAudio, Audio: data}
		case websocket.TextMessage:
			switch string(data) {
			case ctrlSpeechEnd:
				f = Frame{Kind: FrameBoundary}
			case ctrlHangup:
				r.shutdown(ctrlHangup)
				return
			default:
				r.log.WithField("message", string(data)).Debug("ignoring unknown control message")
				continue
			}
		default:
			continue
		}

		select {
		case r.inbound <- f:
		case <-r.done:
			return
		}
	}
}

func (r *WSRoom) pingLoop() {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-t.C:
			r.writeMu.Lock()
			err := r.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			r.writeMu.Unlock()
			if err != nil {
				r.shutdown("transport_error")
				return
			}
		}
	}
}
