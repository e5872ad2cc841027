package admin

import (
	"novus-backend/internal/api"
	"novus-backend/internal/errors"
	"novus-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler 按功能模块组织处理方法
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService}
}

// 用户管理
func (h *AdminHandler) GetUsers(c *gin.Context) {
	page, pageSize := api.Pagination(c)

	users, total, err := h.adminService.GetUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 管理接口需要看到角色和注册时间
	formatted := make([]gin.H, 0, len(users))
	for _, u := range users {
		formatted = append(formatted, gin.H{
			"_id":       u.ID,
			"fullName":  u.FullName,
			"userName":  u.UserName,
			"email":     u.Email,
			"role":      u.Role,
			"createdAt": u.CreatedAt,
		})
	}

	errors.HandleSuccess(c, gin.H{
		"users": formatted,
		"pagination": gin.H{
			"current_page": page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  (total + pageSize - 1) / pageSize,
		},
	}, "")
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, ok := api.ObjectIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.adminService.UpdateUserRole(c.Request.Context(), userID, input.Role)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"user": user}, "用户角色更新成功")
}

// 系统管理
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
	stats, err := h.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, stats, "")
}
