package main

import (
	"context"
	"net/http"
	"novus-backend/config"
	"novus-backend/internal/api/activity"
	"novus-backend/internal/api/admin"
	"novus-backend/internal/api/chat"
	"novus-backend/internal/api/media"
	"novus-backend/internal/api/post"
	realtimeapi "novus-backend/internal/api/realtime"
	"novus-backend/internal/api/user"
	"novus-backend/internal/errors"
	"novus-backend/internal/metrics"
	"novus-backend/internal/middleware"
	"novus-backend/internal/realtime"
	"novus-backend/internal/repository/interfaces"
	"novus-backend/internal/repository/memory"
	"novus-backend/internal/repository/mongodb"
	"novus-backend/internal/service"
	"novus-backend/internal/storage"
	"novus-backend/internal/util"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// repositories 汇总按 DB_DRIVER 选出的仓库实现
type repositories struct {
	users      interfaces.UserRepository
	posts      interfaces.PostRepository
	comments   interfaces.CommentRepository
	activities interfaces.ActivityRepository
	chats      interfaces.ChatRepository
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	ctx := context.Background()
	repos, db, closeDB := openRepositories(ctx)
	defer closeDB()

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidators(v); err != nil {
			util.Logger.Fatal("注册验证器失败", zap.Error(err))
		}
	}

	if config.AppConfig.StorageDriver == "local" {
		ensureUploadsFolder()
	}
	fileStorage, err := storage.New(ctx, config.AppConfig, db)
	if err != nil {
		util.Logger.Fatal("初始化存储失败", zap.Error(err), zap.String("driver", config.AppConfig.StorageDriver))
	}

	collector := metrics.NewCollector("novus")
	analytics := errors.NewErrorAnalytics()
	hub := realtime.NewHub(collector)

	// 初始化服务
	uploader := service.NewMediaUploader(fileStorage, collector)
	emailService := service.NewEmailService(collector)
	userService := service.NewUserService(repos.users, repos.posts, emailService)
	engagementService := service.NewEngagementService(repos.users, repos.posts, repos.comments, repos.activities, collector)
	postService := service.NewPostService(repos.posts, repos.comments, repos.activities, repos.users, uploader)
	commentService := service.NewCommentService(repos.comments, repos.posts, repos.users)
	activityService := service.NewActivityService(repos.activities, repos.users, repos.posts)
	chatService := service.NewChatService(repos.chats, repos.users, uploader)
	statsService := service.NewStatsService(repos.users, repos.posts, repos.comments, repos.chats, repos.activities, hub, analytics)
	adminService := service.NewAdminService(repos.users, statsService)

	// 设置 Gin 路由
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	r.Use(middleware.ErrorMonitorMiddleware(analytics, collector))
	r.Use(middleware.RecoveryMiddleware())

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.AppConfig.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.HeaderRequestID,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		middleware.HeaderRequestID,
	}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": hub.ConnectionCount()})
	})
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	if local, ok := fileStorage.(*storage.LocalStorage); ok {
		r.Static("/uploads", local.BasePath())
	}

	protected := middleware.AuthMiddleware(userService)
	realtimeapi.RegisterRoutes(r, realtimeapi.NewHandler(hub, config.AppConfig.AllowedOrigins), protected)

	limiter := middleware.NewRateLimiter(config.AppConfig.RateLimitPerHour)
	v1 := r.Group("/api/v1", middleware.RateLimitMiddleware(limiter))
	user.RegisterRoutes(v1, user.NewAuthHandler(userService), user.NewUserHandler(userService, engagementService, uploader), protected)
	post.RegisterRoutes(v1, post.NewPostHandler(postService, engagementService), post.NewCommentHandler(commentService, engagementService), protected)
	chat.RegisterRoutes(v1, chat.NewChatHandler(chatService), protected)
	activity.RegisterRoutes(v1, activity.NewActivityHandler(activityService), protected)
	admin.RegisterRoutes(v1, admin.NewAdminHandler(adminService), protected)
	if gridfs, ok := fileStorage.(*storage.GridFSStorage); ok {
		media.RegisterRoutes(v1, media.NewMediaHandler(gridfs))
	}

	if config.AppConfig.Debug {
		util.Logger.Info("已注册的路由列表：")
		for _, route := range r.Routes() {
			util.Logger.Info("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	srv := &http.Server{
		Addr:              ":" + config.AppConfig.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	// websocket 连接已被劫持，Shutdown 不会等待它们
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// openRepositories 按配置创建仓库，memory 驱动下 db 为 nil
func openRepositories(ctx context.Context) (*repositories, *mongo.Database, func()) {
	if config.AppConfig.DBDriver == "memory" {
		util.Logger.Warn("使用内存数据库，重启后数据会丢失")
		store := memory.NewStore()
		return &repositories{
			users:      store.Users,
			posts:      store.Posts,
			comments:   store.Comments,
			activities: store.Activities,
			chats:      store.Chats,
		}, nil, func() {}
	}

	client, db, err := mongodb.Connect(ctx, config.AppConfig.MongoURI, config.AppConfig.DBName)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongodb.EnsureIndexes(indexCtx, db); err != nil {
		util.Logger.Fatal("创建索引失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	repos := &repositories{
		users:      mongodb.NewUserRepository(db),
		posts:      mongodb.NewPostRepository(db),
		comments:   mongodb.NewCommentRepository(db),
		activities: mongodb.NewActivityRepository(db),
		chats:      mongodb.NewChatRepository(db),
	}
	return repos, db, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			util.Logger.Error("断开数据库连接失败", zap.Error(err))
		}
	}
}

// 确保上传文件夹存在
func ensureUploadsFolder() {
	uploadsPath := config.AppConfig.LocalStoragePath
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		util.Logger.Fatal("创建上传文件夹失败", zap.Error(err), zap.String("path", uploadsPath))
	}
	util.Logger.Info("上传文件夹已创建或已存在", zap.String("path", uploadsPath))
}
