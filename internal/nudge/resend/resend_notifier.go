// Package resend delivers streak reminders through the Resend email API.
package resend

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
)

type Notifier struct {
	APIKey string
	From   string
}

const htmlTemplate = `
<p>Your <strong>{{.Streak}}-day streak</strong> ends in about {{.Hours}} hours.</p>
<p>Open the app and finish today's habits to keep it alive.</p>
`

func (n *Notifier) SendNudge(email string, streak, hoursLeft int) error {
	tmpl, err := template.New("nudge").Parse(htmlTemplate)
	if err != nil {
		return err
	}

	data := struct {
		Streak int
		Hours  int
	}{
		Streak: streak,
		Hours:  hoursLeft,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return err
	}

	client := resend.NewClient(n.APIKey)
	params := &resend.SendEmailRequest{
		From:    n.From,
		To:      []string{email},
		Subject: fmt.Sprintf("Your %d-day streak is about to end", streak),
		Html:    buf.String(),
	}

	_, err = client.Emails.Send(params)
	return err
}
