package mailer

import (
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	"text/template"

	"go.lumeweb.com/passreset/core"
)

const EMAIL_FS_PREFIX = "templates/"

const (
	subjectSuffix  = "_subject.tpl"
	bodySuffix     = "_body.tpl"
	bodyHTMLSuffix = "_body.html"
)

//go:embed templates/*
var templateFS embed.FS

var _ core.MailerTemplate = (*EmailTemplate)(nil)

type EmailTemplate struct {
	subject *template.Template
	body    core.TemplateExecutor
	html    bool
}

func (et *EmailTemplate) Subject() *template.Template {
	return et.subject
}

func (et *EmailTemplate) Body() core.TemplateExecutor {
	return et.body
}

func (et *EmailTemplate) HTML() bool {
	return et.html
}

func NewMailerTemplate(subject *template.Template, body *template.Template) *EmailTemplate {
	return &EmailTemplate{
		subject: subject,
		body:    body,
	}
}

// NewHTMLMailerTemplate escapes body variables for the HTML context they are placed in.
func NewHTMLMailerTemplate(subject *template.Template, body *htmltemplate.Template) *EmailTemplate {
	return &EmailTemplate{
		subject: subject,
		body:    body,
		html:    true,
	}
}

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRegistry struct {
	templates   map[string]core.MailerTemplate
	templatesMu sync.RWMutex
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]core.MailerTemplate),
	}
}

// LoadEmbedded registers every subject/body pair shipped with the binary. A body named *_body.html is sent as HTML.
func (tr *TemplateRegistry) LoadEmbedded() error {
	subjects, err := fs.Glob(templateFS, EMAIL_FS_PREFIX+"*"+subjectSuffix)
	if err != nil {
		return err
	}

	for _, subjectFile := range subjects {
		name := strings.TrimSuffix(path.Base(subjectFile), subjectSuffix)

		subjectContent, err := fs.ReadFile(templateFS, subjectFile)
		if err != nil {
			return err
		}

		subjectTmpl, err := template.New(name + "_subject").Option("missingkey=error").Parse(strings.TrimSpace(string(subjectContent)))
		if err != nil {
			return err
		}

		tmpl, err := loadEmbeddedBody(name, subjectTmpl)
		if err != nil {
			return err
		}

		tr.RegisterTemplate(name, tmpl)
	}

	return nil
}

func loadEmbeddedBody(name string, subject *template.Template) (*EmailTemplate, error) {
	bodyContent, err := fs.ReadFile(templateFS, EMAIL_FS_PREFIX+name+bodyHTMLSuffix)
	if err == nil {
		body, err := htmltemplate.New(name + "_body").Option("missingkey=error").Parse(string(bodyContent))
		if err != nil {
			return nil, err
		}

		return NewHTMLMailerTemplate(subject, body), nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	bodyContent, err = fs.ReadFile(templateFS, EMAIL_FS_PREFIX+name+bodySuffix)
	if err != nil {
		return nil, fmt.Errorf("template %s has no body: %w", name, err)
	}

	body, err := template.New(name + "_body").Option("missingkey=error").Parse(string(bodyContent))
	if err != nil {
		return nil, err
	}

	return NewMailerTemplate(subject, body), nil
}

func (tr *TemplateRegistry) RegisterTemplate(name string, template core.MailerTemplate) {
	tr.templatesMu.Lock()
	defer tr.templatesMu.Unlock()
	tr.templates[name] = template
}

func (tr *TemplateRegistry) RenderTemplate(templateName string, subjectVars core.MailerTemplateData, bodyVars core.MailerTemplateData) (*Email, error) {
	tr.templatesMu.RLock()
	tmpl, ok := tr.templates[templateName]
	tr.templatesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}

	var subjectBuilder strings.Builder
	err := tmpl.Subject().Execute(&subjectBuilder, subjectVars)
	if err != nil {
		return nil, err
	}

	var bodyBuilder strings.Builder
	err = tmpl.Body().Execute(&bodyBuilder, bodyVars)
	if err != nil {
		return nil, err
	}

	contentType := ContentTypePlain
	if htmlTmpl, ok := tmpl.(interface{ HTML() bool }); ok && htmlTmpl.HTML() {
		contentType = ContentTypeHTML
	}

	return NewEmail(subjectBuilder.String(), bodyBuilder.String(), contentType), nil
}
