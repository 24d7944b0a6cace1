package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lookatitude/beluga-ai/o11y"
)

// WSConn is a bidirectional text/binary message transport, the shape both
// the gorilla and coder websocket clients satisfy, letting command
// executors and codecs depend on an interface instead of a concrete
// client (spec §6's serializer contract assumes some such duplex byte
// channel beneath it; this is that channel for WS-based collaborators).
type WSConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DialWS opens a gorilla/websocket client connection to url. It is the
// default WSConn used by transport/mic-less deployments (Twilio Media
// Streams, a browser client, any collaborator speaking JSON-over-WS).
func DialWS(ctx context.Context, url string, header http.Header) (WSConn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Upgrader wraps gorilla/websocket's HTTP upgrader for servers accepting
// inbound WS transports (e.g. a Twilio Media Streams webhook).
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Serve upgrades r into a WSConn and invokes handle with it, logging and
// closing the connection when handle returns.
func Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, handle func(ctx context.Context, conn WSConn)) error {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log := o11y.FromContext(ctx)
	log.Info(ctx, "websocket transport connected", "remote", r.RemoteAddr)
	handle(ctx, conn)
	log.Info(ctx, "websocket transport closed", "remote", r.RemoteAddr)
	return nil
}
