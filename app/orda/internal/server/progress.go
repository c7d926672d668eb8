package server

import (
	"encoding/json"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/conf"
)

const (
	progressBuffer = 16
	writeWait      = 10 * time.Second
)

// ProgressHub 将流水线进度推送给所有 websocket 订阅者
type ProgressHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	last     []byte
	upgrader websocket.Upgrader
	log      *log.Helper
}

// NewProgressHub 创建进度推送中心，来源校验与 CORS 白名单一致
func NewProgressHub(c *conf.Server, logger log.Logger) *ProgressHub {
	var origins []string
	if c != nil && c.Http != nil {
		origins = c.Http.CorsOrigins
	}
	return &ProgressHub{
		clients: make(map[*websocket.Conn]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origins, origin)
			},
		},
		log: log.NewHelper(logger),
	}
}

// Publish 广播进度，慢速订阅者的消息被丢弃
func (h *ProgressHub) Publish(ev biz.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("marshal progress event: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
		}
	}
}

// Clients 当前订阅数
func (h *ProgressHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP 升级连接并持续推送，连接建立时先发送最近一次进度
func (h *ProgressHub) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("upgrade progress websocket: %v", err)
		return
	}

	ch := make(chan []byte, progressBuffer)
	h.mu.Lock()
	if h.last != nil {
		ch <- h.last
	}
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warnf("progress websocket closed: %v", err)
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, conn)
	close(ch)
	h.mu.Unlock()
}

func (h *ProgressHub) writeLoop(conn *websocket.Conn, ch <-chan []byte) {
	defer conn.Close()
	for data := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
