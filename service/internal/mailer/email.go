package mailer

import "github.com/wneessen/go-mail"

type ContentType = mail.ContentType

const (
	ContentTypePlain = mail.TypeTextPlain
	ContentTypeHTML  = mail.TypeTextHTML
)

type Email struct {
	to          string
	from        string
	subject     string
	body        string
	contentType ContentType
}

func (e *Email) To() string {
	return e.to
}

func (e *Email) SetTo(to string) {
	e.to = to
}

func (e *Email) From() string {
	return e.from
}

func (e *Email) SetFrom(from string) {
	e.from = from
}

func (e *Email) Subject() string {
	return e.subject
}

func (e *Email) Body() string {
	return e.body
}

func (e *Email) ContentType() ContentType {
	return e.contentType
}

func (e *Email) ToMessage() (*mail.Msg, error) {
	msg := mail.NewMsg()

	err := msg.From(e.from)
	if err != nil {
		return nil, err
	}

	err = msg.To(e.to)
	if err != nil {
		return nil, err
	}

	msg.Subject(e.subject)
	msg.SetBodyString(e.contentType, e.body)

	return msg, nil
}

func NewEmail(subject, body string, contentType ContentType) *Email {
	return &Email{
		subject:     subject,
		body:        body,
		contentType: contentType,
	}
}
