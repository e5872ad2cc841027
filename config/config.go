package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	Port               string
	DBDriver           string
	MongoURI           string
	DBName             string
	JWTSecret          string
	JWTExpiresIn       time.Duration
	LogLevel           string
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	EmailFrom          string
	FrontendURL        string
	BackendURL         string
	AllowedOrigins     []string
	StorageDriver      string
	LocalStoragePath   string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
	RateLimitPerHour   int
	Debug              bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Config{
		Port:               getEnv("PORT", "3000"),
		DBDriver:           getEnv("DB_DRIVER", "mongo"),
		MongoURI:           getEnv("MONGO_URI", ""),
		DBName:             getEnv("DB_NAME", "novus"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpiresIn:       getEnvAsDuration("JWT_EXPIRES_IN", 90*24*time.Hour),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername:       getEnv("SMTP_USERNAME", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "no-reply@novus.app"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:         getEnv("BACKEND_URL", "http://localhost:3000"),
		AllowedOrigins:     getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:4173"}),
		StorageDriver:      getEnv("STORAGE_DRIVER", "local"),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		S3Region:           getEnv("S3_REGION", "eu-central-1"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSProjectID:       getEnv("GCS_PROJECT_ID", ""),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		RateLimitPerHour:   getEnvAsInt("RATE_LIMIT_PER_HOUR", 1000),
		Debug:              getEnvAsBool("DEBUG", false),
	}

	validateConfig()

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库驱动：%s，数据库：%s，存储驱动：%s", AppConfig.DBDriver, AppConfig.DBName, AppConfig.StorageDriver)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	var values []string
	for _, v := range strings.Split(valStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func validateConfig() {
	switch AppConfig.DBDriver {
	case "mongo":
		if AppConfig.MongoURI == "" || AppConfig.DBName == "" {
			log.Fatal("错误：数据库配置不完整")
		}
	case "memory":
		if AppConfig.StorageDriver == "gridfs" {
			log.Fatal("错误：gridfs 存储需要 mongo 数据库驱动")
		}
	default:
		log.Fatalf("错误：未知的数据库驱动 %s", AppConfig.DBDriver)
	}
	if AppConfig.JWTSecret == "" {
		log.Fatal("错误：JWT密钥未设置")
	}
	switch AppConfig.StorageDriver {
	case "local", "gridfs":
	case "s3":
		if AppConfig.S3Bucket == "" {
			log.Fatal("错误：S3存储桶未设置")
		}
	case "gcs":
		if AppConfig.GCSBucketName == "" {
			log.Fatal("错误：GCS存储桶未设置")
		}
	default:
		log.Fatalf("错误：未知的存储驱动 %s", AppConfig.StorageDriver)
	}
}
