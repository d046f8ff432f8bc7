package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"chitchat/auth"
	"chitchat/client"
	"chitchat/domain"
	"chitchat/identity"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxIntentBytes = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway and the UI share an origin in production; relax only
	// behind a reverse proxy that enforces it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// intent is what the browser sends: pick a peer, submit text, or close
// the open conversation.
type intent struct {
	Type   string `json:"type"` // "select" | "send" | "close"
	PeerID string `json:"peer_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

// frame is what the gateway pushes: the established session, roster and
// conversation snapshots, and non-blocking error notifications.
type frame struct {
	Type     string           `json:"type"` // "session" | "roster" | "messages" | "state" | "error"
	User     *domain.User     `json:"user,omitempty"`
	Users    []domain.User    `json:"users,omitempty"`
	Channel  string           `json:"channel,omitempty"`
	Messages []domain.Message `json:"messages,omitempty"`
	State    string           `json:"state,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// wsSession owns the client core of one connected browser: one Session,
// one Roster, one Conversation, one Composer. Everything it allocates
// is torn down when the socket closes.
type wsSession struct {
	log      *slog.Logger
	conn     *websocket.Conn
	send     chan frame
	done     chan struct{}
	user     domain.User
	handle   *identity.Handle
	session  *client.Session
	roster   *client.Roster
	conv     *client.Conversation
	composer *client.Composer
}

// handleWebSocket upgrades the connection and runs the session until
// the browser disconnects.
func (s *Server) handleWebSocket(c *gin.Context) {
	userID := c.GetString(auth.UserIDKey)
	user, err := s.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown identity"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Error("WebSocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	ws := &wsSession{
		log:    s.log,
		conn:   conn,
		send:   make(chan frame, sendBuffer),
		done:   make(chan struct{}),
		user:   user,
		handle: identity.NewHandle(),
	}
	ws.session = client.NewSession(ws.handle)
	ws.roster = client.NewRoster(s.store, func(users []domain.User) {
		ws.enqueue(frame{Type: "roster", Users: users})
	})
	ws.conv = client.NewConversation(s.store, func(ch domain.ChannelID, messages []domain.Message) {
		ws.enqueue(frame{Type: "messages", Channel: string(ch), Messages: messages})
	})
	ws.composer = client.NewComposer(s.store)

	// The identity is already verified; establish it and wait for the
	// session gate before anything renders.
	ws.handle.Establish(&user)
	<-ws.session.Ready()
	ws.roster.Track(user.ID)
	ws.enqueue(frame{Type: "session", User: &user})

	go ws.writePump()
	ws.readPump()
}

// enqueue pushes a frame without ever blocking a snapshot callback. A
// saturated browser loses intermediate frames, not the connection, and
// frames enqueued during teardown are discarded.
func (ws *wsSession) enqueue(f frame) {
	select {
	case <-ws.done:
	case ws.send <- f:
	default:
		ws.log.Warn("Send buffer full, dropping frame", "type", f.Type, "user_id", ws.user.ID)
	}
}

func (ws *wsSession) readPump() {
	defer ws.teardown()

	ws.conn.SetReadLimit(maxIntentBytes)
	_ = ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	ws.conn.SetPongHandler(func(string) error {
		return ws.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := ws.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Warn("WebSocket read failed", "user_id", ws.user.ID, "error", err)
			}
			return
		}

		var in intent
		if err := json.Unmarshal(raw, &in); err != nil {
			ws.enqueue(frame{Type: "error", Error: "malformed intent"})
			continue
		}
		ws.dispatch(in)
	}
}

func (ws *wsSession) dispatch(in intent) {
	switch in.Type {
	case "select":
		ch, err := ws.conv.Select(ws.user.ID, in.PeerID)
		if err != nil {
			ws.enqueue(frame{Type: "error", Error: err.Error()})
			return
		}
		ws.enqueue(frame{Type: "state", State: ws.conv.State().String(), Channel: string(ch)})

	case "send":
		ws.composer.SetDraft(in.Text)
		err := ws.composer.Send(context.Background(), ws.conv.Channel(), ws.user.ID, ws.conv.PeerID())
		if err != nil {
			// Draft stays intact in the composer; the browser may retry.
			ws.enqueue(frame{Type: "error", Error: err.Error()})
		}

	case "close":
		ws.conv.CloseChat()
		ws.enqueue(frame{Type: "state", State: ws.conv.State().String()})

	default:
		ws.enqueue(frame{Type: "error", Error: "unknown intent"})
	}
}

func (ws *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.conn.Close()
	}()

	for {
		select {
		case <-ws.done:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case f := <-ws.send:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteJSON(f); err != nil {
				return
			}

		case <-ticker.C:
			_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// teardown releases every subscription exactly once, then stops the
// write pump through the done channel.
func (ws *wsSession) teardown() {
	ws.conv.Teardown()
	ws.roster.Close()
	ws.handle.SignOut()
	ws.session.Close()
	close(ws.done)
	_ = ws.conn.Close()
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
