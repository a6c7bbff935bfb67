// Package livesync keeps a client's view fresh. It holds one long-lived
// WebSocket connection to the server's change channel and invokes a refresh
// callback whenever an event arrives, with a Resume hook as the safety net
// for events missed while the host application was backgrounded.
package livesync

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/jmrivas/conteo/internal/notify"
)

const (
	dialTimeout = 10 * time.Second
	redialWait  = 3 * time.Second
)

// Client subscribes to the change channel at url and calls refresh on every
// received event. The transport redials with a flat backoff when the
// connection drops; no further retry logic exists beyond that and Resume.
type Client struct {
	url     string
	refresh func(ev notify.Event)
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(url string, refresh func(ev notify.Event), logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		url:     url,
		refresh: refresh,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start opens the connection loop. It returns immediately; connection
// failures are retried in the background until Close.
func (c *Client) Start() {
	c.wg.Add(1)
	go c.run()
}

// Resume triggers an immediate refresh, independent of the socket's state.
// Hosts call it when the application regains foreground or visibility, which
// covers any events lost to a dropped connection.
func (c *Client) Resume() {
	select {
	case <-c.ctx.Done():
		return
	default:
	}
	c.refresh(notify.Event{Event: notify.EventName})
}

// Close tears the connection down and stops the redial loop. Used on logout
// or when the owning view unmounts.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Client) run() {
	defer c.wg.Done()

	for {
		if err := c.connectAndListen(); err != nil {
			c.logger.Debug("sync connection lost", "error", err)
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(redialWait):
		}
	}
}

func (c *Client) connectAndListen() error {
	dialCtx, cancel := context.WithTimeout(c.ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c.logger.Info("sync channel connected", "url", c.url)

	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			return err
		}

		var ev notify.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("failed to decode sync event", "error", err)
			continue
		}

		c.refresh(ev)
	}
}
