package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crowdsim-oss/entity"
)

const (
	writeWait      = 5 * time.Second
	maxAnnotations = 1 << 16 // 每帧最多携带的标注数，超出部分丢弃
)

// Hub WebSocket可视化与控制服务
// 功能：向所有订阅者广播静态场景、每步的行人状态与标注，并把订阅者发来的命令转交给任务
// 说明：实现entity.IAnnotator；Annotate可被多个协程并发调用，没有订阅者时标注直接丢弃
type Hub struct {
	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	nextID      atomic.Uint64
	active      atomic.Int32 // 订阅者数量，供Annotate快速判断

	scene Scene
	sink  entity.ICommandSink

	annMu       sync.Mutex
	annotations []entity.Annotation
	dropped     int

	upgrader websocket.Upgrader
	server   *http.Server
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// send 串行化同一连接上的写操作
func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub 创建可视化服务
// 参数：scene-静态场景，sink-命令接收者
// 返回：可视化服务实例
func NewHub(scene Scene, sink entity.ICommandSink) *Hub {
	scene.Type = MessageScene
	return &Hub{
		subscribers: make(map[uint64]*subscriber),
		scene:       scene,
		sink:        sink,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Annotate 收集一条标注，随下一帧发送
func (h *Hub) Annotate(a entity.Annotation) {
	if h.active.Load() == 0 {
		return
	}
	h.annMu.Lock()
	defer h.annMu.Unlock()
	if len(h.annotations) >= maxAnnotations {
		h.dropped++
		return
	}
	h.annotations = append(h.annotations, a)
}

// takeAnnotations 取出并清空已收集的标注
func (h *Hub) takeAnnotations() []entity.Annotation {
	h.annMu.Lock()
	defer h.annMu.Unlock()
	if h.dropped > 0 {
		log.Warnf("%d annotations dropped in one frame", h.dropped)
		h.dropped = 0
	}
	res := h.annotations
	h.annotations = nil
	return res
}

// Subscribers 当前订阅者数量
func (h *Hub) Subscribers() int {
	return int(h.active.Load())
}

// Publish 广播一帧
// 功能：附上本步收集的标注，序列化后发送给所有订阅者，发送失败的订阅者被断开
func (h *Hub) Publish(frame Frame) {
	frame.Type = MessageFrame
	frame.Annotations = h.takeAnnotations()
	if h.active.Load() == 0 {
		return
	}
	data, err := json.Marshal(frame)
	if err != nil {
		log.Errorf("failed to marshal frame: %v", err)
		return
	}
	h.mu.Lock()
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	// 按订阅顺序发送
	ids := lo.Keys(subs)
	slices.Sort(ids)
	for _, id := range ids {
		if err := subs[id].send(data); err != nil {
			log.Warnf("failed to send frame to subscriber %d: %v", id, err)
			h.disconnect(id)
		}
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) (uint64, *subscriber) {
	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn}
	h.mu.Lock()
	h.subscribers[id] = sub
	h.mu.Unlock()
	h.active.Add(1)
	log.Infof("subscriber %d connected from %v", id, conn.RemoteAddr())
	return id, sub
}

func (h *Hub) disconnect(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.active.Add(-1)
	sub.conn.Close()
	log.Infof("subscriber %d disconnected", id)
}

// handleMessage 解析客户端消息，命令提交给任务并返回应答
func (h *Hub) handleMessage(payload []byte) (ackMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ackMessage{}, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Type != MessageCommand {
		return ackMessage{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
	ack := ackMessage{Type: MessageAck, Command: msg.Command}
	if !lo.Contains(entity.Commands, msg.Command) {
		ack.Error = fmt.Sprintf("unknown command %q", msg.Command)
	} else if err := h.sink.Submit(msg.Command); err != nil {
		ack.Error = err.Error()
	}
	return ack, nil
}

// ServeWS WebSocket连接处理：发送场景，然后循环读取命令直到连接断开
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("upgrade failed: %v", err)
		return
	}
	id, sub := h.subscribe(conn)
	defer h.disconnect(id)

	data, err := json.Marshal(h.scene)
	if err != nil {
		log.Errorf("failed to marshal scene: %v", err)
		return
	}
	if err := sub.send(data); err != nil {
		return
	}
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ack, err := h.handleMessage(payload)
		if err != nil {
			log.Warnf("discarding message from subscriber %d: %v", id, err)
			continue
		}
		if ack.Error != "" {
			log.Warnf("command %s from subscriber %d rejected: %s", ack.Command, id, ack.Error)
		} else {
			log.Infof("command %s from subscriber %d queued", ack.Command, id)
		}
		data, err := json.Marshal(ack)
		if err != nil {
			log.Errorf("failed to marshal ack: %v", err)
			continue
		}
		if err := sub.send(data); err != nil {
			return
		}
	}
}

// Handler HTTP路由：/ws为WebSocket入口，/scene返回静态场景JSON
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/scene", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(h.scene)
		if err != nil {
			http.Error(w, "failed to encode", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})
	return mux
}

// Start 在addr上启动HTTP服务，监听失败时返回错误
func (h *Hub) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("viewer listen %s: %w", addr, err)
	}
	h.server = &http.Server{Handler: h.Handler()}
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("viewer server stopped: %v", err)
		}
	}()
	log.Infof("viewer listening on %v", ln.Addr())
	return nil
}

// Close 关闭HTTP服务并断开全部订阅者
func (h *Hub) Close() {
	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			log.Warnf("viewer shutdown: %v", err)
		}
	}
	h.mu.Lock()
	ids := lo.Keys(h.subscribers)
	h.mu.Unlock()
	for _, id := range ids {
		h.disconnect(id)
	}
}
