package service

import (
	"os"
	"testing"
	"time"

	"novus-backend/config"
)

func TestMain(m *testing.M) {
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.JWTExpiresIn = time.Hour
	config.AppConfig.FrontendURL = "http://localhost:5173"
	os.Exit(m.Run())
}
