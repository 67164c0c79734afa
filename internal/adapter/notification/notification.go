package notification

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/derril-tech/ai-powered-project-management-tool/internal/pkg/config"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyAutomation    NotificationType = "automation"     // 自动化规则触发
	NotifyTaskAssigned  NotificationType = "task_assigned"  // 任务指派
	NotifySprintStarted NotificationType = "sprint_started" // 冲刺开始
)

// NotificationMessage 通知消息
type NotificationMessage struct {
	Type       NotificationType       `json:"type"`
	Title      string                 `json:"title"`
	Content    string                 `json:"content"`
	Recipients []string               `json:"recipients,omitempty"` // 为空时使用渠道默认收件人
	Timestamp  time.Time              `json:"timestamp"`
	Extra      map[string]interface{} `json:"extra,omitempty"` // 额外信息
}

// Notifier 通知器接口
type Notifier interface {
	// Send 发送通知
	Send(ctx context.Context, msg *NotificationMessage) error
}

// New 按配置组装通知器, 日志通知器始终启用
func New(cfg *config.Config, logger *zap.Logger) Notifier {
	notifiers := []Notifier{NewLogNotifier(logger)}
	if cfg.Notify.LarkWebhook != "" {
		notifiers = append(notifiers, NewLarkNotifier(cfg.Notify.LarkWebhook, cfg.Notify.Timeout, logger))
	}
	if cfg.Mail.Enabled() {
		notifiers = append(notifiers, NewEmailNotifier(&cfg.Mail, logger))
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	return NewMultiNotifier(logger, notifiers...)
}

// ============= Lark 通知适配器 =============

// LarkNotifier Lark通知器
type LarkNotifier struct {
	webhookURL string
	logger     *zap.Logger
	client     *resty.Client
}

// NewLarkNotifier 创建Lark通知器
func NewLarkNotifier(webhookURL string, timeout time.Duration, logger *zap.Logger) *LarkNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LarkNotifier{
		webhookURL: webhookURL,
		logger:     logger,
		client:     resty.New().SetTimeout(timeout),
	}
}

// Send 发送通知
func (n *LarkNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	if n.webhookURL == "" {
		n.logger.Warn("Lark Webhook URL未配置")
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(n.buildLarkMessage(msg)).
		Post(n.webhookURL)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("Lark API返回错误状态码: %d", resp.StatusCode())
	}

	n.logger.Info("Lark通知发送成功",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title))

	return nil
}

// buildLarkMessage 构建Lark消息格式
func (n *LarkNotifier) buildLarkMessage(msg *NotificationMessage) map[string]interface{} {
	color := "blue"
	if c, ok := msg.Extra["color"].(string); ok {
		color = c
	}

	// Lark富文本消息格式
	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": msg.Title,
				},
				"template": color,
			},
			"elements": []interface{}{
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"tag":     "lark_md",
						"content": msg.Content,
					},
				},
				map[string]interface{}{
					"tag": "div",
					"text": map[string]interface{}{
						"tag":     "plain_text",
						"content": fmt.Sprintf("时间: %s", msg.Timestamp.Format("2006-01-02 15:04:05")),
					},
				},
			},
		},
	}
}

// ============= 邮件通知器 =============

// sendMailFunc 与 smtp.SendMail 同签名
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier SMTP邮件通知器
type EmailNotifier struct {
	cfg      *config.MailConfig
	logger   *zap.Logger
	sendMail sendMailFunc
}

// NewEmailNotifier 创建邮件通知器
func NewEmailNotifier(cfg *config.MailConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:      cfg,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

// Send 发送邮件
func (n *EmailNotifier) Send(_ context.Context, msg *NotificationMessage) error {
	to := msg.Recipients
	if len(to) == 0 {
		to = n.cfg.Recipients
	}
	// 含换行的地址会注入额外的邮件头
	to = lo.Reject(to, func(addr string, _ int) bool {
		return strings.ContainsAny(addr, "\r\n")
	})
	if len(to) == 0 {
		n.logger.Debug("未配置邮件收件人,跳过发送", zap.String("title", msg.Title))
		return nil
	}

	body := "From: " + n.cfg.From + "\r\n" +
		"To: " + strings.Join(to, ",") + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Title) + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" + msg.Content

	var auth smtp.Auth
	if n.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	if err := n.sendMail(addr, auth, n.cfg.From, to, []byte(body)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	n.logger.Info("邮件通知发送成功",
		zap.String("title", msg.Title),
		zap.Strings("to", to))
	return nil
}

// ============= 多通知器 =============

// MultiNotifier 多通知器(支持同时发送到多个渠道)
type MultiNotifier struct {
	notifiers []Notifier
	logger    *zap.Logger
}

// NewMultiNotifier 创建多通知器
func NewMultiNotifier(logger *zap.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		notifiers: notifiers,
		logger:    logger,
	}
}

// Send 发送到所有通知器
func (m *MultiNotifier) Send(ctx context.Context, msg *NotificationMessage) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, msg); err != nil {
			m.logger.Error("发送通知失败", zap.Error(err))
			lastErr = err
			// 继续发送其他通知器
		}
	}
	return lastErr
}

// ============= 日志通知器(仅记录日志,不发送实际通知) =============

// LogNotifier 日志通知器
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{
		logger: logger,
	}
}

// Send 记录通知到日志
func (n *LogNotifier) Send(_ context.Context, msg *NotificationMessage) error {
	n.logger.Info("📢 通知",
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("content", msg.Content),
		zap.Any("extra", msg.Extra))
	return nil
}
