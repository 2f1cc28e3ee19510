package service

import (
	"context"
	"errors"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/service/internal/mailer"
)

func TestMailerTemplateSend(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailerWithSender("noreply@example.com", sender, core.NewNopLogger())
	require.NoError(t, err)

	vars := core.MailerTemplateData{
		"ResetURL":       "https://example.com/resetpassword.html?key=abc",
		"FederatedLogin": false,
		"ExpiresIn":      "1 hour",
	}

	require.NoError(t, m.TemplateSend(context.Background(), core.MAILER_TPL_PASSWORD_RESET, vars, vars, "a@x.com"))
	require.Equal(t, 1, sender.count())
	assert.Equal(t, []string{"a@x.com"}, sender.lastRecipients(t))
	assert.Contains(t, sender.lastBody(t), "https://example.com/resetpassword.html?key=abc")
}

func TestMailerTemplateSendErrors(t *testing.T) {
	sender := &recordingSender{err: errors.New("dial tcp: connection refused")}
	m, err := NewMailerWithSender("noreply@example.com", sender, core.NewNopLogger())
	require.NoError(t, err)

	err = m.TemplateSend(context.Background(), "missing", nil, nil, "a@x.com")
	assert.ErrorIs(t, err, mailer.ErrTemplateNotFound)

	vars := core.MailerTemplateData{"ResetURL": "u", "FederatedLogin": false, "ExpiresIn": "1 hour"}
	err = m.TemplateSend(context.Background(), core.MAILER_TPL_PASSWORD_RESET, vars, vars, "a@x.com")
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, sender.count())
}

func TestMailerTemplateRegister(t *testing.T) {
	sender := &recordingSender{}
	m, err := NewMailerWithSender("noreply@example.com", sender, core.NewNopLogger())
	require.NoError(t, err)

	tpl := mailer.NewMailerTemplate(
		template.Must(template.New("s").Parse("Notice")),
		template.Must(template.New("b").Parse("Hello {{.Name}}")),
	)

	assert.Error(t, m.TemplateRegister("", tpl))
	require.NoError(t, m.TemplateRegister("notice", tpl))
	require.NoError(t, m.TemplateSend(context.Background(), "notice", nil, core.MailerTemplateData{"Name": "a"}, "a@x.com"))
	assert.Equal(t, "Hello a", sender.lastBody(t))
}

func TestNewMailClient(t *testing.T) {
	client, err := newMailClient(newTestConfig(t, "").Config().Core.Mail)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestMailerServiceShutdownWithoutSend(t *testing.T) {
	m, opts, err := NewMailerService(NewMailerTemplateRegistry())
	require.NoError(t, err)

	ctx, err := core.NewContext(newTestConfig(t, ""), core.NewNopLogger(), opts...)
	require.NoError(t, err)
	defer ctx.Cancel()

	for _, f := range ctx.StartupFuncs() {
		require.NoError(t, f(ctx))
	}
	require.NotNil(t, m.client)

	assert.NotPanics(t, func() {
		for _, f := range ctx.ExitFuncs() {
			assert.NoError(t, f(ctx))
		}
	})
}
