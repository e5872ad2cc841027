package service

import (
	"crypto/tls"
	"fmt"
	"html"
	"novus-backend/config"
	"novus-backend/internal/metrics"
	"novus-backend/internal/model"
	"novus-backend/internal/util"
	"time"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

const (
	passwordResetTTL   = 10 * time.Minute
	passwordResetClaim = "password_reset"
)

// EmailService 通过 SMTP 发送邮件并签发重置令牌
type EmailService struct {
	smtpHost  string
	smtpPort  int
	username  string
	password  string
	from      string
	jwtSecret string
	metrics   *metrics.Collector
	// send 默认为 SMTP 发送，测试中可以替换
	send func(m *mail.Message) error
}

func NewEmailService(collector *metrics.Collector) *EmailService {
	s := &EmailService{
		smtpHost:  config.AppConfig.SMTPHost,
		smtpPort:  config.AppConfig.SMTPPort,
		username:  config.AppConfig.SMTPUsername,
		password:  config.AppConfig.SMTPPassword,
		from:      config.AppConfig.EmailFrom,
		jwtSecret: config.AppConfig.JWTSecret,
		metrics:   collector,
	}
	s.send = s.dialAndSend
	return s
}

// SendWelcomeEmail 异步发送欢迎邮件
func (s *EmailService) SendWelcomeEmail(user *model.User) error {
	subject := "Welcome to Novus!"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Welcome to Novus! Complete your profile and start sharing with the people you follow.</p>
<p><a href="%s">Open Novus</a></p>`, html.EscapeString(firstName(user.FullName)), config.AppConfig.FrontendURL)

	go func() {
		if err := s.sendEmail("welcome", user.Email, subject, body); err != nil {
			util.Logger.Error("异步发送邮件失败", zap.Error(err), zap.String("to", user.Email))
		}
	}()
	return nil
}

// SendPasswordResetEmail 发送10分钟内有效的重置链接
func (s *EmailService) SendPasswordResetEmail(user *model.User) error {
	token, err := s.generatePasswordResetToken(user.Email)
	if err != nil {
		util.Logger.Error("生成密码重置令牌失败", zap.Error(err))
		return fmt.Errorf("生成密码重置令牌失败: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password/%s", config.AppConfig.FrontendURL, token)
	subject := "Your password reset token (valid for 10 min)"
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Forgot your password? Follow the link below to choose a new one:</p>
<p><a href="%s">Reset password</a></p>
<p>If you didn't forget your password, please ignore this email.</p>`, html.EscapeString(firstName(user.FullName)), resetLink)

	return s.sendEmail("password_reset", user.Email, subject, body)
}

func (s *EmailService) sendEmail(template, to, subject, body string) error {
	util.Logger.Info("开始发送邮件",
		zap.String("to", to),
		zap.String("subject", subject))

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	err := s.send(m)
	s.metrics.RecordEmail(template, err)
	if err != nil {
		util.Logger.Error("发送邮件失败", zap.Error(err), zap.String("to", to))
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	util.Logger.Info("邮件发送成功", zap.String("to", to))
	return nil
}

func (s *EmailService) dialAndSend(m *mail.Message) error {
	d := mail.NewDialer(s.smtpHost, s.smtpPort, s.username, s.password)
	d.Timeout = 20 * time.Second
	d.SSL = s.smtpPort == 465
	d.TLSConfig = &tls.Config{ServerName: s.smtpHost}
	return d.DialAndSend(m)
}

func (s *EmailService) generatePasswordResetToken(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(passwordResetTTL).Unix(),
		"type":  passwordResetClaim,
	})
	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyPasswordResetToken 校验重置令牌并返回邮箱
func (s *EmailService) VerifyPasswordResetToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名算法")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		util.Logger.Info("解析密码重置令牌失败", zap.Error(err))
		return "", fmt.Errorf("无效的令牌: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		email, ok := claims["email"].(string)
		if !ok {
			return "", fmt.Errorf("无效的令牌: 缺少邮箱信息")
		}
		tokenType, ok := claims["type"].(string)
		if !ok || tokenType != passwordResetClaim {
			return "", fmt.Errorf("无效的令牌类型")
		}
		return email, nil
	}

	return "", fmt.Errorf("无效的令牌")
}

func firstName(fullName string) string {
	for i, r := range fullName {
		if r == ' ' {
			return fullName[:i]
		}
	}
	return fullName
}

var _ Mailer = (*EmailService)(nil)
