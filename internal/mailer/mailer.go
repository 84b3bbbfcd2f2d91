// Package mailer delivers the order summary and the compiled book to the
// operator mailbox over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mrmateussiilva/petstory-mvp/internal/types/order"
	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	To       string
}

type Mailer struct {
	cfg Config
}

func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Password == "" || cfg.From == "" || cfg.To == "" {
		return nil, fmt.Errorf("mailer: incomplete SMTP settings")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.FromName == "" {
		cfg.FromName = "PetStory"
	}
	return &Mailer{cfg: cfg}, nil
}

// Notify sends the order summary with the book attached. There are no
// partial-send semantics: any failure means the whole order retries.
func (m *Mailer) Notify(ctx context.Context, o *order.Order, book []byte) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	msg.Subject("Pedido PetStory - " + o.ID)

	arquivos := strings.Join(o.FileNames, ", ")
	if arquivos == "" {
		arquivos = "nenhum"
	}
	body := strings.Join([]string{
		"Pedido: " + o.ID,
		"Nome do pet: " + o.PetName,
		"Email do usuário: " + o.CustomerEmail,
		"Arquivos: " + arquivos,
		"Data: " + o.CreatedAt.Format(time.RFC3339),
	}, "\n")
	msg.SetBodyString(mail.TypeTextPlain, body)

	if len(book) > 0 {
		if err := msg.AttachReader("livro_"+o.ID+".pdf", bytes.NewReader(book)); err != nil {
			return fmt.Errorf("attach book: %w", err)
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
