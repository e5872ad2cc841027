package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"novus-backend/internal/metrics"
	"novus-backend/internal/util"

	"go.uber.org/zap"
)

// Hub 维护所有在线连接并负责广播，不做持久化也不重放
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	metrics *metrics.Collector
}

func NewHub(collector *metrics.Collector) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		metrics: collector,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectionOpened()
	util.Logger.Info("连接已注册",
		zap.String("connection_id", c.id),
		util.ID("user_id", c.userID),
		zap.Int("connections", total))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	h.metrics.ConnectionClosed()
	util.Logger.Info("连接已注销",
		zap.String("connection_id", c.id),
		util.ID("user_id", c.userID),
		zap.Int("connections", total))
}

// Broadcast 把事件发送给 scope 内的连接，返回成功入队的数量。
// 发送缓冲已满的连接直接丢弃这一帧。
func (h *Hub) Broadcast(event Event, data json.RawMessage, scope Scope) (int, error) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return 0, fmt.Errorf("序列化事件失败: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if !scope(c) {
			continue
		}
		select {
		case c.send <- payload:
			delivered++
		default:
			h.metrics.RecordDrop()
			util.Logger.Warn("发送缓冲已满，丢弃事件",
				zap.String("connection_id", c.id),
				zap.String("event", string(event)))
		}
	}
	h.metrics.RecordRelay(string(event))
	return delivered, nil
}

// relay 处理客户端发来的帧，已知事件转发给除发送者外的所有连接
func (h *Hub) relay(from *Client, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		util.Logger.Debug("无法解析的帧", zap.String("connection_id", from.id), zap.Error(err))
		return
	}
	if !IsRelayable(frame.Event) {
		util.Logger.Debug("忽略未知事件",
			zap.String("connection_id", from.id),
			zap.String("event", string(frame.Event)))
		return
	}
	if _, err := h.Broadcast(frame.Event, frame.Data, AllExcept(from.id)); err != nil {
		util.Logger.Error("转发事件失败", zap.String("event", string(frame.Event)), zap.Error(err))
	}
}

// ConnectionCount 返回当前在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close 关闭所有连接，用于优雅退出
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.send)
		h.metrics.ConnectionClosed()
	}
	util.Logger.Info("所有连接已关闭", zap.Int("connections", len(clients)))
}
