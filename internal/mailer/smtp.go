package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender はSMTP経由でメールを配送するSender実装。
type SMTPSender struct {
	addr string // host:port
	from string
}

// NewSMTPSender はSMTPSenderの新しいインスタンスを生成する。
func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

// Send はSMTPサーバーへメールを送信する。
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if s.addr == "" {
		return fmt.Errorf("SMTPサーバーのアドレスが設定されていません")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	if err := smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("SMTP送信に失敗しました: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
