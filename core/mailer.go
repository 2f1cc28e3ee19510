package core

import (
	"context"
	"io"
	"text/template"
)

const MAILER_SERVICE = "mailer"

const MAILER_TPL_PASSWORD_RESET = "password_reset"

type MailerTemplateData = map[string]any

// TemplateExecutor is a parsed text/template or html/template.
type TemplateExecutor interface {
	Execute(wr io.Writer, data any) error
}

type MailerTemplate interface {
	Subject() *template.Template
	Body() TemplateExecutor
}

type MailerService interface {
	// TemplateSend renders the named template and delivers it to a single recipient.
	TemplateSend(ctx context.Context, template string, subjectVars MailerTemplateData, bodyVars MailerTemplateData, to string) error
	TemplateRegister(name string, template MailerTemplate) error

	Service
}
