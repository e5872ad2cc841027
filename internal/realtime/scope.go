package realtime

// Scope 决定一次广播的接收连接
type Scope func(c *Client) bool

// Everyone 包含所有连接
func Everyone() Scope {
	return func(*Client) bool { return true }
}

// AllExcept 排除指定连接，用于把事件转发给发送者以外的所有人
func AllExcept(connID string) Scope {
	return func(c *Client) bool { return c.id != connID }
}
