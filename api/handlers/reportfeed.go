package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/models"
)

// EventType names a report mutation pushed to the feed
type EventType string

// Events published after a successful mutation
const (
	ReportCreated EventType = "report.created"
	ReportUpdated EventType = "report.updated"
	ReportDeleted EventType = "report.deleted"
)

const (
	feedSendBuffer = 16
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = (feedPongWait * 9) / 10
)

// ReportEvent is the message written to feed subscribers
type ReportEvent struct {
	Type   EventType     `json:"type"`
	Report models.Report `json:"report"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ReportFeed broadcasts report mutations to connected websocket clients. A nil feed
// accepts publishes and drops them.
type ReportFeed struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*feedClient]struct{}
	closed   bool
}

// NewReportFeed returns an empty feed
func NewReportFeed() *ReportFeed {
	return &ReportFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the reporting page may be served from another origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it subscribed until either side closes
func (f *ReportFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f == nil {
		http.Error(w, "report feed unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		zap.S().Debugw("report feed upgrade failed", "error", err)
		return
	}

	c := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}
	if !f.add(c) {
		conn.Close()
		return
	}
	zap.S().Debugw("report feed client connected", "remote", r.RemoteAddr)

	go f.writePump(c)
	f.readPump(c)
}

// Publish queues an event for every client. Clients whose buffer is full are dropped.
func (f *ReportFeed) Publish(t EventType, report models.Report) {
	if f == nil {
		return
	}
	b, err := json.Marshal(ReportEvent{Type: t, Report: report})
	if err != nil {
		zap.S().Warnw("failed to marshal report event", "type", t, "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		select {
		case c.send <- b:
		default:
			zap.S().Debug("dropping slow report feed client")
			f.removeLocked(c)
		}
	}
}

// Close disconnects every client and refuses new ones
func (f *ReportFeed) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for c := range f.clients {
		f.removeLocked(c)
	}
}

func (f *ReportFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *ReportFeed) add(c *feedClient) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.clients[c] = struct{}{}
	return true
}

func (f *ReportFeed) remove(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(c)
}

// removeLocked closes the send channel, which makes the write pump close the socket
func (f *ReportFeed) removeLocked(c *feedClient) {
	if _, ok := f.clients[c]; !ok {
		return
	}
	delete(f.clients, c)
	close(c.send)
}

// readPump discards client messages and detects disconnects
func (f *ReportFeed) readPump(c *feedClient) {
	defer f.remove(c)
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *ReportFeed) writePump(c *feedClient) {
	ticker := time.NewTicker(feedPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				f.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				f.remove(c)
				return
			}
		}
	}
}
