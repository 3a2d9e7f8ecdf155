package session

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/dgnsrekt/voicebooth/internal/performer"
	"github.com/dgnsrekt/voicebooth/internal/realtime"
	"github.com/dustin/go-humanize"
)

// generation is the per-call state of Generate: the connection, the
// machine and the audio buffer.
type generation struct {
	s       *Session
	logger  *log.Logger
	machine *Machine

	conn   realtime.Conn
	closed bool

	buffer []byte

	transportErr error
	ioErr        error
}

func newGeneration(s *Session, logger *log.Logger) *generation {
	g := &generation{s: s, logger: logger, machine: NewMachine()}

	g.machine.OnEnter(StateStreaming, func(ev Event) {
		g.buffer = append(g.buffer, ev.Chunk...)
	})
	g.machine.OnEnter(StateFinalizing, func(Event) {
		g.materialize()
	})
	g.machine.OnEnter(StateClosed, func(Event) {
		g.close()
	})
	g.machine.OnEnter(StateAborted, func(ev Event) {
		g.transportErr = newError(CodeTransport, "realtime connection failed", ev.Err)
		g.logger.Error("transport error", "error", ev.Err)
		g.close()
	})
	return g
}

// apply feeds ev to the machine, dropping illegal events.
func (g *generation) apply(ev Event) {
	from := g.machine.Current()
	to, err := g.machine.Apply(ev)
	if err != nil {
		g.logger.Warn("dropping event", "event", ev.Kind, "state", from, "error", err)
		return
	}
	if from != to {
		g.logger.Debug("state changed", "from", from, "to", to, "event", ev.Kind)
	}
}

// run negotiates on conn and consumes frames until the machine is terminal
// or the connection ends.
func (g *generation) run(ctx context.Context, conn realtime.Conn, voice performer.Voice, instructions, text string) {
	g.conn = conn
	defer g.close()

	g.apply(Event{Kind: EventSessionNegotiated})
	for _, msg := range []interface{}{
		realtime.NewSessionUpdate(voice.ID, voice.Speed, instructions),
		realtime.NewUserText(text),
		realtime.NewResponseCreate(),
	} {
		if err := conn.Send(msg); err != nil {
			g.apply(Event{Kind: EventTransportError, Err: err})
			return
		}
	}

	for !g.machine.Current().Terminal() {
		data, err := conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, realtime.ErrClosed) {
				g.logger.Info("connection closed by server", "reason", err)
				g.apply(Event{Kind: EventTransportClosed})
				return
			}
			g.apply(Event{Kind: EventTransportError, Err: err})
			return
		}

		if ev, ok := g.decode(data); ok {
			g.apply(ev)
		}
	}
}

// decode turns one inbound frame into a machine event. Frames that carry no
// transition are logged and reported as not ok.
func (g *generation) decode(data []byte) (Event, bool) {
	msg, err := realtime.ParseServerEvent(data)
	if errors.Is(err, realtime.ErrMissingDelta) {
		g.logger.Error("audio delta without delta field")
		return Event{}, false
	}
	if err != nil {
		g.logger.Warn("dropping malformed frame", "error", err, "size", len(data))
		return Event{}, false
	}

	switch e := msg.(type) {
	case *realtime.ResponseAudioDeltaEvent:
		chunk, err := base64.StdEncoding.DecodeString(*e.Delta)
		if err != nil {
			g.logger.Warn("dropping undecodable audio delta", "error", err)
			return Event{}, false
		}
		return Event{Kind: EventAudioDelta, Chunk: chunk}, true
	case *realtime.ResponseAudioDoneEvent:
		return Event{Kind: EventAudioDone}, true
	case *realtime.ResponseDoneEvent:
		return Event{Kind: EventResponseDone}, true
	case *realtime.ErrorEvent:
		g.logger.Error("server error", "type", e.Error.Type, "code", e.Error.Code, "message", e.Error.Message)
	case *realtime.SessionEvent:
		g.logger.Debug("session event", "type", e.Type, "id", e.Session.ID)
	case *realtime.ServerEvent:
		g.logger.Debug("ignoring event", "type", e.Type)
	}
	return Event{}, false
}

// materialize writes the buffer to a fresh temp file and clears it.
func (g *generation) materialize() {
	if len(g.buffer) == 0 {
		g.logger.Warn("audio done with empty buffer, nothing written")
		return
	}

	pcm := g.buffer
	g.buffer = nil
	if len(pcm)%2 != 0 {
		g.logger.Warn("dropping trailing odd byte from audio", "size", len(pcm))
		pcm = pcm[:len(pcm)-1]
		if len(pcm) == 0 {
			return
		}
	}

	path, err := g.s.allocateTemp()
	if err != nil {
		g.ioErr = newError(CodeIO, "failed to allocate temp file", err)
		return
	}
	if err := audio.WritePCM16(path, pcm, realtime.SampleRate, realtime.Channels); err != nil {
		// A partial file must not be left behind for Save or Play.
		g.s.discardTemp(path)
		g.ioErr = newError(CodeIO, "failed to write take", err).WithContext("path", path)
		return
	}
	g.ioErr = nil
	g.logger.Info("take written", "path", path, "size", humanize.Bytes(uint64(len(pcm))))
}

// close closes the connection at most once.
func (g *generation) close() {
	if g.closed || g.conn == nil {
		return
	}
	g.closed = true
	if err := g.conn.Close(); err != nil {
		g.logger.Debug("error closing connection", "error", err)
	}
}
