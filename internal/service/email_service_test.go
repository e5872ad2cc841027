package service

import (
	"bytes"
	"fmt"
	"io"
	"mime/quotedprintable"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"novus-backend/internal/model"
	"novus-backend/internal/util"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mail.v2"
)

type capturedMail struct {
	mu   sync.Mutex
	sent []*mail.Message
	done chan struct{}
	err  error
}

func newTestEmailService() (*EmailService, *capturedMail) {
	captured := &capturedMail{done: make(chan struct{}, 10)}
	s := NewEmailService(nil)
	s.send = func(m *mail.Message) error {
		captured.mu.Lock()
		captured.sent = append(captured.sent, m)
		captured.mu.Unlock()
		captured.done <- struct{}{}
		return captured.err
	}
	return s, captured
}

func messageBody(t *testing.T, m *mail.Message) string {
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	parts := strings.SplitN(buf.String(), "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	body, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(parts[1])))
	require.NoError(t, err)
	return string(body)
}

func TestSendWelcomeEmail_IsAsync(t *testing.T) {
	s, captured := newTestEmailService()
	user := &model.User{FullName: "Alice Smith", Email: "alice@example.com"}

	require.NoError(t, s.SendWelcomeEmail(user))

	select {
	case <-captured.done:
	case <-time.After(time.Second):
		t.Fatal("welcome email was not sent")
	}
	captured.mu.Lock()
	defer captured.mu.Unlock()
	require.Len(t, captured.sent, 1)
	assert.Equal(t, []string{"alice@example.com"}, captured.sent[0].GetHeader("To"))
	assert.Contains(t, messageBody(t, captured.sent[0]), "Hi Alice,")
}

func TestSendPasswordResetEmail_TokenRoundTrip(t *testing.T) {
	s, captured := newTestEmailService()
	user := &model.User{FullName: "Bob", Email: "bob@example.com"}

	require.NoError(t, s.SendPasswordResetEmail(user))
	require.Len(t, captured.sent, 1)

	body := messageBody(t, captured.sent[0])
	match := regexp.MustCompile(`reset-password/([A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+)`).FindStringSubmatch(body)
	require.Len(t, match, 2)

	email, err := s.VerifyPasswordResetToken(match[1])
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)
}

func TestSendPasswordResetEmail_SendFailure(t *testing.T) {
	s, captured := newTestEmailService()
	captured.err = fmt.Errorf("smtp down")

	err := s.SendPasswordResetEmail(&model.User{FullName: "Bob", Email: "bob@example.com"})

	assert.Error(t, err)
}

func TestVerifyPasswordResetToken_Rejects(t *testing.T) {
	s, _ := newTestEmailService()

	accessToken, err := util.GenerateToken("5f1d7c3e9b1e8a0012345678")
	require.NoError(t, err)
	_, err = s.VerifyPasswordResetToken(accessToken)
	assert.Error(t, err, "access tokens are not reset tokens")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "bob@example.com",
		"exp":   time.Now().Add(-time.Minute).Unix(),
		"type":  passwordResetClaim,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = s.VerifyPasswordResetToken(expired)
	assert.Error(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "bob@example.com",
		"exp":   time.Now().Add(time.Minute).Unix(),
		"type":  passwordResetClaim,
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = s.VerifyPasswordResetToken(forged)
	assert.Error(t, err)
}
