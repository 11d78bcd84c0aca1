package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/dream-slot/internal/logger"
	"go.uber.org/zap"
)

// Client WebSocket客户端
type Client struct {
	ID   string          // 客户端ID
	hub  *Hub            // Hub引用
	conn *websocket.Conn // WebSocket连接
	send chan []byte     // 发送通道

	mu        sync.RWMutex
	machineID string // 订阅的机器，为空表示全部
}

// subscribeRequest 订阅请求数据
type subscribeRequest struct {
	MachineID string `json:"machine_id"`
}

// NewClient 创建新客户端
func NewClient(hub *Hub, conn *websocket.Conn, machineID string) *Client {
	return &Client{
		ID:        uuid.New().String(),
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, hub.cfg.SendQueueSize),
		machineID: machineID,
	}
}

// MachineID 当前订阅的机器
func (c *Client) MachineID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.machineID
}

func (c *Client) accepts(machineID string) bool {
	sub := c.MachineID()
	return sub == "" || machineID == "" || sub == machineID
}

// ReadPump 读取消息
func (c *Client) ReadPump() {
	// 注销后 Hub 关闭发送通道，由 WritePump 关闭连接
	defer c.hub.Unregister(c)

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket读取错误",
					zap.String("client_id", c.ID),
					zap.Error(err))
			}
			break
		}

		if !c.handleMessage(message) {
			break
		}
	}
}

// WritePump 写入消息
func (c *Client) WritePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				// Hub关闭了通道
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息，返回 false 时断开连接
func (c *Client) handleMessage(data []byte) bool {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.hub.logger.Error("解析WebSocket消息失败",
			zap.String("client_id", c.ID),
			zap.Error(err))
		c.sendError("消息格式错误")
		// 断开发送无效JSON的连接
		return false
	}
	logger.LogWebSocketMessage("receive", msg.Type, c.ID)

	switch msg.Type {
	case MessageTypePing:
		c.reply(MessageTypePong, nil)

	case MessageTypePong:
		c.hub.logger.Debug("收到pong", zap.String("client_id", c.ID))

	case MessageTypeSubscribe:
		var req subscribeRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.sendError("订阅参数错误")
				return true
			}
		}
		c.mu.Lock()
		c.machineID = req.MachineID
		c.mu.Unlock()
		c.reply(MessageTypeSubscribed, req)

	default:
		// 不支持的消息类型
		c.hub.logger.Warn("收到不支持的消息类型",
			zap.String("client_id", c.ID),
			zap.String("type", msg.Type))
		c.sendError("不支持的消息类型: " + msg.Type)
	}
	return true
}

func (c *Client) reply(msgType string, data interface{}) {
	msg, err := NewMessage(msgType, c.MachineID(), data)
	if err != nil {
		return
	}
	c.hub.SendToClient(c.ID, msg)
}

// sendError 发送错误消息
func (c *Client) sendError(message string) {
	c.reply(MessageTypeError, map[string]string{"error": message})
}
