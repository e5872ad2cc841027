package model

// SystemStats 系统统计数据
type SystemStats struct {
	TotalUsers        int                    `json:"total_users"`
	TotalPosts        int                    `json:"total_posts"`
	TotalComments     int                    `json:"total_comments"`
	TotalChats        int                    `json:"total_chats"`
	TotalActivities   int                    `json:"total_activities"`
	ActiveConnections int                    `json:"active_connections"`
	Errors            map[string]interface{} `json:"errors,omitempty"`
}
