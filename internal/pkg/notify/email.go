package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"jobboard/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件通知。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendApplicationReceived 向公司所有者发送新投递通知。
func (n *EmailNotifier) SendApplicationReceived(ctx context.Context, notice Notice, toEmail string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("email config missing, skip notification")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		n.logger.Warn("email recipient empty, skip notification")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("[JobBoard] 新しい応募: %s", notice.JobTitle))
	m.SetBody("text/html", n.buildHTMLBody(notice))

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("application notification sent", slog.String("to", toEmail), slog.String("job", notice.JobTitle))
	return nil
}

func (n *EmailNotifier) buildHTMLBody(notice Notice) string {
	noteLine := ""
	if strings.TrimSpace(notice.Note) != "" {
		noteLine = fmt.Sprintf(`<p style="color:#374151;">附言：%s</p>`, html.EscapeString(notice.Note))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f6f7fb; color: #1f2937;">
  <div style="max-width: 560px; margin: 24px auto; background: #ffffff; border-radius: 12px; border: 1px solid #e5e7eb; overflow: hidden;">
    <div style="background: #0f172a; color: #ffffff; padding: 16px 20px; font-weight: bold;">[JobBoard] 收到新投递</div>
    <div style="padding: 20px;">
      <p>候选人 <strong>%s</strong> 投递了职位 <strong>%s</strong>。</p>
      %s
      <p style="margin-top: 16px; font-size: 12px; color: #6b7280;">登录后台查看候选人完整资料。</p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(notice.CandidateName), html.EscapeString(notice.JobTitle), noteLine)
}
