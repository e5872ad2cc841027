package realtime

import "encoding/json"

// Event 是客户端之间转发的事件名
type Event string

const (
	EventNewPost    Event = "new-post"
	EventEditPost   Event = "edit-post"
	EventDeletePost Event = "delete-post"
	EventNewMessage Event = "new-message"
	EventNewChat    Event = "new-chat"
	EventDeleteChat Event = "delete-chat"
)

var relayable = map[Event]struct{}{
	EventNewPost:    {},
	EventEditPost:   {},
	EventDeletePost: {},
	EventNewMessage: {},
	EventNewChat:    {},
	EventDeleteChat: {},
}

// IsRelayable 判断事件是否会被转发给其他连接
func IsRelayable(e Event) bool {
	_, ok := relayable[e]
	return ok
}

// Frame 是 websocket 上传输的 JSON 帧
type Frame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
