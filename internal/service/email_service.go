package service

import (
	"fmt"
	"log"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailSender отправляет транзакционные письма пользователям
type EmailSender interface {
	SendVerificationCode(toEmail, username, code string) error
}

// ResendEmailService отправляет письма через Resend API
type ResendEmailService struct {
	client *resend.Client
	from   string
}

// NewResendEmailService создает сервис отправки через Resend
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}
	if from == "" {
		from = "QuizDash <noreply@quizdash.app>"
	}
	return &ResendEmailService{
		client: resend.NewClient(apiKey),
		from:   from,
	}, nil
}

// SendVerificationCode отправляет код подтверждения email.
// Transient-ошибки ретраятся до 3 раз с нарастающей паузой.
func (s *ResendEmailService) SendVerificationCode(toEmail, username, code string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: "Your QuizDash verification code",
		Html: fmt.Sprintf(
			`<p>Hi %s,</p>
<p>Your verification code is:</p>
<h2 style="letter-spacing: 4px;">%s</h2>
<p>The code expires in 15 minutes. If you did not create a QuizDash account, ignore this email.</p>`,
			username, code,
		),
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		sent, err := s.client.Emails.Send(params)
		if err == nil {
			log.Printf("[EmailService] Код подтверждения отправлен на %s (id=%s)", toEmail, sent.Id)
			return nil
		}
		lastErr = err
		log.Printf("[EmailService] Попытка %d отправки на %s не удалась: %v", attempt, toEmail, err)
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	return fmt.Errorf("failed to send verification email after retries: %w", lastErr)
}

// NoopEmailService пишет код в лог вместо отправки.
// Используется в dev-окружении, когда подтверждение email выключено.
type NoopEmailService struct{}

// SendVerificationCode логирует код вместо отправки письма
func (s *NoopEmailService) SendVerificationCode(toEmail, username, code string) error {
	log.Printf("[EmailService] (noop) Код подтверждения для %s: %s", toEmail, code)
	return nil
}
