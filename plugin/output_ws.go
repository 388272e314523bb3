package plugin

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/record"
)

const (
	wsWriteWait = 10 * time.Second
	// per client queue, a slow consumer loses records instead of stalling
	// the emitter
	wsSendBuffer = 64
)

// upgrader is used to upgrade the HTTP server connection to the WebSocket protocol.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSOutput broadcasts records to every connected websocket client, overlays
// and damage meters subscribe here. delivery is best effort.
type WSOutput struct {
	sync.Mutex
	codec   record.Codec
	server  *http.Server
	clients map[*wsClient]bool
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewWSOutput(addr string, codec string) *WSOutput {
	var o WSOutput
	o.codec = record.GetCodec(codec)
	o.clients = make(map[*wsClient]bool)

	mux := http.NewServeMux()
	mux.HandleFunc("/", o.serveWS)
	o.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		err := o.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			slog.Error("websocket output server: %v", err)
		}
	}()
	slog.Info("websocket output listening on %v", addr)
	return &o
}

func (o *WSOutput) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	o.Lock()
	o.clients[client] = true
	o.Unlock()
	slog.Info("websocket client connected: %v", conn.RemoteAddr())

	go o.writePump(client)
	go o.readPump(client)
}

// writePump delivers queued records to one client.
func (o *WSOutput) writePump(c *wsClient) {
	defer o.dropClient(c)
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards whatever the client sends and notices disconnects.
func (o *WSOutput) readPump(c *wsClient) {
	defer o.dropClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// dropClient unregisters the client, the map check keeps the channel from
// being closed twice when both pumps exit.
func (o *WSOutput) dropClient(c *wsClient) {
	o.Lock()
	defer o.Unlock()
	if _, ok := o.clients[c]; ok {
		delete(o.clients, c)
		close(c.send)
	}
	c.conn.Close()
}

// PluginWrite broadcasts a record to every connected client, a client whose
// queue is full loses this record rather than delaying the others.
func (o *WSOutput) PluginWrite(rec *record.Record) (n int, err error) {
	data, err := o.codec.Marshal(rec)
	if err != nil {
		return 0, err
	}

	o.Lock()
	defer o.Unlock()
	for client := range o.clients {
		select {
		case client.send <- data:
		default:
			slog.Debug("websocket client too slow, record dropped")
		}
	}
	return len(data), nil
}

func (o *WSOutput) String() string {
	return fmt.Sprintf("websocket output: %s", o.server.Addr)
}

func (o *WSOutput) Close() error {
	o.Lock()
	if o.closed {
		o.Unlock()
		return nil
	}
	o.closed = true
	clients := make([]*wsClient, 0, len(o.clients))
	for c := range o.clients {
		clients = append(clients, c)
	}
	o.Unlock()

	for _, c := range clients {
		o.dropClient(c)
	}
	return o.server.Close()
}
