package server

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsInboxSize    = 256
)

// wsConn 基于 WebSocket 的 PeerConn
// 读协程把二进制帧放入 inbox，Recv 只做非阻塞读取；写操作只在 worker 协程里发生
type wsConn struct {
	ws    *websocket.Conn
	codec Codec
	addr  string

	inbox   chan []byte
	readErr error // 读协程退出原因，inbox 关闭后可读
	closed  chan struct{}
	once    sync.Once
}

func newWSConn(ws *websocket.Conn, codec Codec) *wsConn {
	c := &wsConn{
		ws:     ws,
		codec:  codec,
		addr:   ws.RemoteAddr().String(),
		inbox:  make(chan []byte, wsInboxSize),
		closed: make(chan struct{}),
	}
	go c.readPump()
	return c
}

// readPump 独立协程，inbox 满时阻塞读，把背压留给 TCP 而不是丢包
func (c *wsConn) readPump() {
	defer close(c.inbox)
	c.ws.SetReadLimit(maxFrameSize)
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		select {
		case c.inbox <- data:
		case <-c.closed:
			c.readErr = net.ErrClosed
			return
		}
	}
}

func (c *wsConn) Recv() (Payload, error) {
	select {
	case data, ok := <-c.inbox:
		if !ok {
			return nil, fmt.Errorf("%w: read: %v", ErrFatal, c.readErr)
		}
		return c.codec.Decode(data)
	default:
		return nil, ErrTransient
	}
}

func (c *wsConn) Send(p Payload) error {
	b, err := c.codec.Encode(p)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.ws.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return fmt.Errorf("%w: write: %v", ErrFatal, err)
	}
	return nil
}

// Close 可与其他方法并发调用
func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) RemoteAddr() string { return c.addr }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// HandleWS WebSocket 接入；满员后拒绝新的连接
func (l *Lobby) HandleWS(w http.ResponseWriter, r *http.Request) {
	if l.Full() {
		http.Error(w, "session full", http.StatusServiceUnavailable)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("upgrade error", "err", err)
		return
	}

	conn := newWSConn(ws, l.codec)
	index, err := l.Join(conn)
	if err != nil {
		Log.Infow("reject connection", "addr", conn.RemoteAddr(), "err", err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	Log.Infow("peer joined", "addr", conn.RemoteAddr(), "index", index)
}
