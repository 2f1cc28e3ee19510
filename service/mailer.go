package service

import (
	"context"
	"errors"
	"strings"

	"github.com/wneessen/go-mail"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/service/internal/mailer"
	"go.uber.org/zap"
)

var _ core.MailerService = (*Mailer)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.MAILER_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewMailerService(NewMailerTemplateRegistry())
		},
	})
}

// MailSender is the part of *mail.Client the mailer uses. Every send dials and closes its own connection,
// so the mailer never holds one open.
type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Mailer struct {
	from             string
	logger           *core.Logger
	client           MailSender
	templateRegistry *mailer.TemplateRegistry
}

func NewMailerService(templateRegistry *mailer.TemplateRegistry) (*Mailer, []core.ContextBuilderOption, error) {
	m := &Mailer{
		templateRegistry: templateRegistry,
	}

	if err := templateRegistry.LoadEmbedded(); err != nil {
		return nil, nil, err
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			m.from = ctx.Config().Config().Core.Mail.From
			m.logger = ctx.Logger()

			client, err := newMailClient(ctx.Config().Config().Core.Mail)
			if err != nil {
				return err
			}

			m.client = client

			return nil
		}),
	)

	return m, opts, nil
}

// NewMailerWithSender builds a mailer that delivers through sender instead of an SMTP client built from config.
func NewMailerWithSender(from string, sender MailSender, logger *core.Logger) (*Mailer, error) {
	registry := NewMailerTemplateRegistry()
	if err := registry.LoadEmbedded(); err != nil {
		return nil, err
	}

	return &Mailer{
		from:             from,
		logger:           logger,
		client:           sender,
		templateRegistry: registry,
	}, nil
}

func NewMailerTemplateRegistry() *mailer.TemplateRegistry {
	return mailer.NewTemplateRegistry()
}

func newMailClient(cfg config.MailConfig) (*mail.Client, error) {
	var options []mail.Option

	if cfg.Port != 0 {
		options = append(options, mail.WithPort(cfg.Port))
	}

	if cfg.AuthType != "" {
		options = append(options, mail.WithSMTPAuth(mail.SMTPAuthType(strings.ToUpper(cfg.AuthType))))
		options = append(options, mail.WithUsername(cfg.Username))
		options = append(options, mail.WithPassword(cfg.Password))
	}

	if cfg.SSL {
		options = append(options, mail.WithSSLPort(true))
	} else {
		options = append(options, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	return mail.NewClient(cfg.Host, options...)
}

func (m *Mailer) ID() string {
	return core.MAILER_SERVICE
}

func (m *Mailer) TemplateSend(ctx context.Context, template string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData, to string) error {
	email, err := m.templateRegistry.RenderTemplate(template, subjectVars, bodyVars)
	if err != nil {
		return err
	}

	email.SetFrom(m.from)
	email.SetTo(to)

	msg, err := email.ToMessage()
	if err != nil {
		return err
	}

	if m.client == nil {
		return errors.New("mail client not initialized")
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to send email", zap.String("template", template), zap.Error(err))
		}
		return err
	}

	return nil
}

func (m *Mailer) TemplateRegister(name string, template core.MailerTemplate) error {
	if name == "" {
		return errors.New("template name must not be empty")
	}

	m.templateRegistry.RegisterTemplate(name, template)

	return nil
}
