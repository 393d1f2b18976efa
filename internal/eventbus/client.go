package eventbus

import (
	"context"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	reconnectBackoff = time.Second
	outageLogEvery   = 5 * time.Minute
)

// Client is the RM side of the event bus: it connects to the SR's
// WebSocket server and reconnects on any disconnect, matching the
// reference agent's resilience against a server that isn't up yet or
// that restarts.
type Client struct {
	addr string
	in   chan Message
}

// NewClient builds a Client targeting addr (host:port, no scheme). Run
// must be started in its own goroutine before messages arrive on
// Messages().
func NewClient(addr string) *Client {
	return &Client{addr: addr, in: make(chan Message, 256)}
}

// Messages returns the channel of decoded inbound deltas.
func (c *Client) Messages() <-chan Message { return c.in }

// Run dials and redials until ctx is canceled. Each dial failure or
// mid-stream disconnect sleeps reconnectBackoff before retrying; an
// outage spanning outageLogEvery is logged once per interval instead
// of once per failed attempt, to avoid flooding logs during a long
// SR restart.
func (c *Client) Run(ctx context.Context) {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/eventbus"}

	var outageStart time.Time
	var lastOutageLog time.Time

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
		if err != nil {
			c.noteOutage(&outageStart, &lastOutageLog, err)
			if !sleepOrDone(ctx, reconnectBackoff) {
				return
			}
			continue
		}

		outageStart = time.Time{}
		log.Printf("[eventbus] connected to %s", u.String())
		c.readUntilClosed(ctx, conn)

		if !sleepOrDone(ctx, reconnectBackoff) {
			return
		}
	}
}

func (c *Client) readUntilClosed(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[eventbus] connection closed: %v", err)
			return
		}
		msg, err := Decode(raw)
		if err != nil {
			log.Printf("[eventbus] dropping malformed frame: %v", err)
			continue
		}
		select {
		case c.in <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) noteOutage(start, lastLog *time.Time, err error) {
	now := time.Now()
	if start.IsZero() {
		*start = now
		*lastLog = now
		log.Printf("[eventbus] dial %s failed, retrying: %v", c.addr, err)
		return
	}
	if now.Sub(*lastLog) >= outageLogEvery {
		log.Printf("[eventbus] still unable to reach %s after %s: %v", c.addr, now.Sub(*start).Round(time.Second), err)
		*lastLog = now
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
