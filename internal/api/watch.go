package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

const (
	watchBuffer  = 64
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// watchMessage is one frame on the watch stream. The first frame has op
// "snapshot" and carries the list at subscription time.
type watchMessage struct {
	Seq      uint64       `json:"seq"`
	Op       string       `json:"op"`
	Todo     *model.Todo  `json:"todo,omitempty"`
	Snapshot []model.Todo `json:"snapshot"`
}

// watchTodos streams store events over a websocket until the client goes
// away. A client that falls watchBuffer events behind is disconnected.
func (s *Server) watchTodos(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events := make(chan store.Event, watchBuffer)
	overflow := make(chan struct{})
	var overflowed bool // observers run serialized by the store
	// Subscribe before the snapshot so no mutation falls between them.
	sub := s.store.Subscribe(func(ev store.Event) {
		if overflowed {
			return
		}
		select {
		case events <- ev:
		default:
			overflowed = true
			close(overflow)
		}
	})
	defer s.store.Unsubscribe(sub)

	seq, todos := s.store.Snapshot()
	first := watchMessage{Seq: seq, Op: "snapshot", Snapshot: todos}
	if err := s.write(conn, first); err != nil {
		return
	}

	// Reader: detect client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			if ev.Seq <= seq {
				continue
			}
			t := ev.Todo
			msg := watchMessage{Seq: ev.Seq, Op: string(ev.Op), Todo: &t, Snapshot: ev.Snapshot}
			if err := s.write(conn, msg); err != nil {
				s.log.Debug("watch write failed", "err", err)
				return
			}
		case <-overflow:
			s.log.Warn("watch client too slow, disconnecting", "remote", c.ClientIP())
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"),
				time.Now().Add(writeTimeout))
			return
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (s *Server) write(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
