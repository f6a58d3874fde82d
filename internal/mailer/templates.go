package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
	"time"
)

var (
	resetText = template.Must(template.New("reset").Parse(
		`Hello {{.Username}},

To reset your FreelanceHub password open the link below:

{{.Link}}

The link expires in {{.TTL}}. If you did not ask for a reset, ignore this email.
`))

	resetHTML = htmltemplate.Must(htmltemplate.New("reset").Parse(
		`<p>Hello {{.Username}},</p>
<p>To reset your FreelanceHub password <a href="{{.Link}}">click here</a>.</p>
<p>The link expires in {{.TTL}}. If you did not ask for a reset, ignore this email.</p>
`))

	messageText = template.Must(template.New("message").Parse(
		`Hello {{.Receiver}},

{{.Sender}} sent you a message: "{{.Subject}}"

{{.Preview}}

Read it at {{.Link}}
`))

	messageHTML = htmltemplate.Must(htmltemplate.New("message").Parse(
		`<p>Hello {{.Receiver}},</p>
<p><strong>{{.Sender}}</strong> sent you a message: &ldquo;{{.Subject}}&rdquo;</p>
<blockquote>{{.Preview}}</blockquote>
<p><a href="{{.Link}}">Read the message</a></p>
`))
)

func render(text *template.Template, html *htmltemplate.Template, data interface{}) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := html.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}

// PasswordReset builds the reset email carrying the tokenized link.
func PasswordReset(to, username, link string, ttl time.Duration) (Mail, error) {
	data := struct {
		Username, Link, TTL string
	}{username, link, humanDuration(ttl)}

	text, html, err := render(resetText, resetHTML, data)
	if err != nil {
		return Mail{}, err
	}
	return Mail{To: to, Subject: "Password Reset Request", Text: text, HTML: html}, nil
}

// NewMessage builds the notification for a received private message.
// preview should already be truncated.
func NewMessage(to, receiver, sender, subject, preview, link string) (Mail, error) {
	data := struct {
		Receiver, Sender, Subject, Preview, Link string
	}{receiver, sender, subject, preview, link}

	text, html, err := render(messageText, messageHTML, data)
	if err != nil {
		return Mail{}, err
	}
	return Mail{To: to, Subject: "New message from " + sender, Text: text, HTML: html}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d == time.Minute:
		return "1 minute"
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
