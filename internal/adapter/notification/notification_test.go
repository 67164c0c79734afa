package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
)

type recordingNotifier struct {
	messages []*NotificationMessage
	err      error
}

func (r *recordingNotifier) Send(_ context.Context, msg *NotificationMessage) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func TestMultiNotifierContinuesOnError(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("boom")}
	ok := &recordingNotifier{}
	m := NewMultiNotifier(zap.NewNop(), failing, ok)

	err := m.Send(context.Background(), &NotificationMessage{Title: "t"})
	assert.EqualError(t, err, "boom")
	assert.Len(t, failing.messages, 1)
	assert.Len(t, ok.messages, 1)
}

func TestLarkNotifierSend(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL, time.Second, zap.NewNop())
	err := n.Send(context.Background(), &NotificationMessage{
		Type:      NotifyAutomation,
		Title:     "规则触发",
		Content:   "任务已完成",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "interactive", got["msg_type"])
}

func TestLarkNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewLarkNotifier(srv.URL, time.Second, zap.NewNop())
	err := n.Send(context.Background(), &NotificationMessage{Title: "t"})
	assert.Error(t, err)
}

func TestEmailNotifierSend(t *testing.T) {
	cfg := &config.MailConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   587,
		From:       "noreply@example.com",
		Recipients: []string{"team@example.com"},
	}
	n := NewEmailNotifier(cfg, zap.NewNop())

	var addr string
	var to []string
	var body string
	n.sendMail = func(a string, _ smtp.Auth, _ string, recipients []string, msg []byte) error {
		addr, to, body = a, recipients, string(msg)
		return nil
	}

	require.NoError(t, n.Send(context.Background(), &NotificationMessage{Title: "Sprint started", Content: "hello"}))
	assert.Equal(t, "smtp.example.com:587", addr)
	assert.Equal(t, []string{"team@example.com"}, to)
	assert.Contains(t, body, "Subject: Sprint started")
	assert.Contains(t, body, "hello")

	// 消息自带收件人时优先
	require.NoError(t, n.Send(context.Background(), &NotificationMessage{Title: "x", Recipients: []string{"a@example.com"}}))
	assert.Equal(t, []string{"a@example.com"}, to)
}

func TestEmailNotifierHeaderInjection(t *testing.T) {
	cfg := &config.MailConfig{SMTPHost: "smtp.example.com", SMTPPort: 25, From: "noreply@example.com"}
	n := NewEmailNotifier(cfg, zap.NewNop())

	var to []string
	var body string
	n.sendMail = func(_ string, _ smtp.Auth, _ string, recipients []string, msg []byte) error {
		to, body = recipients, string(msg)
		return nil
	}

	err := n.Send(context.Background(), &NotificationMessage{
		Title:      "Task Fix\r\nBcc: attacker@evil.com",
		Content:    "body",
		Recipients: []string{"dev@example.com", "x@example.com\r\nBcc: attacker@evil.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"dev@example.com"}, to)

	headers, _, found := strings.Cut(body, "\r\n\r\n")
	require.True(t, found)
	for _, line := range strings.Split(headers, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
	}
	assert.Contains(t, headers, "Subject: =?utf-8?q?")
}

func TestNewSelectsChannels(t *testing.T) {
	cfg := &config.Config{}
	_, ok := New(cfg, zap.NewNop()).(*LogNotifier)
	assert.True(t, ok)

	cfg.Mail.SMTPHost = "smtp.example.com"
	_, ok = New(cfg, zap.NewNop()).(*MultiNotifier)
	assert.True(t, ok)
}
