package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/dream-slot/internal/config"
	apperrors "github.com/wfunc/dream-slot/internal/errors"
	"github.com/wfunc/dream-slot/internal/logger"
	"go.uber.org/zap"
)

// Hub WebSocket连接管理中心
type Hub struct {
	// 客户端连接池
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 消息广播通道
	broadcast chan *Message

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	// Run 退出后关闭
	done chan struct{}

	cfg    config.WebSocketConfig
	logger *zap.Logger
}

// Message WebSocket消息
type Message struct {
	Type      string          `json:"type"`                 // 消息类型
	MachineID string          `json:"machine_id,omitempty"` // 所属机器，为空表示全部
	Data      json.RawMessage `json:"data,omitempty"`       // 消息数据
	Timestamp int64           `json:"timestamp"`            // 时间戳
}

// MessageType 消息类型
const (
	// 系统消息
	MessageTypeConnected  = "connected"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
	MessageTypeSubscribe  = "subscribe"
	MessageTypeSubscribed = "subscribed"
	MessageTypeError      = "error"

	// 游戏消息
	MessageTypeSpinResult     = "spin_result"
	MessageTypeSimulationDone = "simulation_done"
)

// NewMessage 创建消息
func NewMessage(msgType, machineID string, data interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		MachineID: machineID,
		Timestamp: time.Now().Unix(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrMessageFormat, "序列化消息失败")
		}
		msg.Data = raw
	}
	return msg, nil
}

// NewHub 创建Hub
func NewHub(cfg config.WebSocketConfig, log *zap.Logger) *Hub {
	if log == nil {
		log = logger.WithModule("websocket")
	}
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongTimeout {
		// ping发送周期必须小于pong超时
		cfg.PingInterval = (cfg.PongTimeout * 9) / 10
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 8192
	}

	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		cfg:        cfg,
		logger:     log,
	}
}

// Run 运行Hub，ctx 取消后关闭全部连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// registerClient 注册客户端
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client.ID] = client
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端连接",
		zap.String("client_id", client.ID),
		zap.String("machine_id", client.MachineID()))

	// 发送连接成功消息
	msg, _ := NewMessage(MessageTypeConnected, client.MachineID(), map[string]string{
		"client_id": client.ID,
		"message":   "连接成功",
	})
	h.SendToClient(client.ID, msg)
}

// unregisterClient 注销客户端
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.clientsMu.Unlock()

	h.logger.Info("WebSocket客户端断开", zap.String("client_id", client.ID))
}

// closeAll 关闭全部客户端
func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.send)
	}
}

// broadcastMessage 广播消息给订阅了对应机器的客户端
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("序列化消息失败", zap.Error(err))
		return
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for _, client := range h.clients {
		if !client.accepts(message.MachineID) {
			continue
		}
		select {
		case client.send <- data:
			logger.LogWebSocketMessage("send", message.Type, client.ID)
		default:
			// 发送缓冲区满时丢弃该消息
			h.logger.Warn("客户端发送缓冲区满",
				zap.String("client_id", client.ID),
				zap.String("type", message.Type))
		}
	}
}

// SendToClient 发送消息给指定客户端
func (h *Hub) SendToClient(clientID string, message *Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrMessageFormat)
	}

	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return apperrors.Newf(apperrors.ErrWebSocketClosed, "客户端未找到: %s", clientID)
	}

	select {
	case client.send <- data:
		return nil
	default:
		return apperrors.Newf(apperrors.ErrWebSocketSend, "发送缓冲区已满: %s", clientID)
	}
}

// Publish 序列化并广播消息
func (h *Hub) Publish(msgType, machineID string, data interface{}) error {
	msg, err := NewMessage(msgType, machineID, data)
	if err != nil {
		return err
	}
	return h.Broadcast(msg)
}

// Broadcast 广播消息，Hub 已停止时返回错误
func (h *Hub) Broadcast(message *Message) error {
	select {
	case <-h.done:
		return apperrors.New(apperrors.ErrWebSocketClosed, "Hub已停止")
	default:
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return apperrors.New(apperrors.ErrWebSocketClosed, "Hub已停止")
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister 注销客户端
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// GetOnlineCount 获取在线人数
func (h *Hub) GetOnlineCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Config 获取连接配置
func (h *Hub) Config() config.WebSocketConfig {
	return h.cfg
}
