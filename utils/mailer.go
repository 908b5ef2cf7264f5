package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"teamnest/config"
	"teamnest/models"
)

// InvitationMailer delivers team invitation emails. Controllers depend
// on the interface so tests can swap in a fake.
type InvitationMailer interface {
	SendInvitationEmail(invitation *models.TeamInvitation, team *models.Team, inviter *models.User) error
}

type EmailData struct {
	Subject   string
	To        []string
	Template  string
	Data      interface{}
	Year      int
	FromName  string
	FromEmail string
}

// Embedded email templates
var emailTemplates = map[string]string{
	"team_invitation": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .cta { font-size: 16px; font-weight: bold; margin: 20px 0; text-align: center; }
        .cta a { background: #3498db; color: #fff; padding: 12px 24px; border-radius: 4px; text-decoration: none; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You've been invited to join {{.TeamName}}</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>{{.InviterName}} invited you to join the team <strong>{{.TeamName}}</strong> as {{.RoleLabel}}.</p>

        <div class="cta"><a href="{{.AcceptURL}}">Accept invitation</a></div>

        <p>This invitation expires on {{.ExpiresAt}}.</p>
    </div>

    <div class="footer">
        <p>If you weren't expecting this invitation, you can safely ignore this email.</p>
        <p>© {{.Year}} Teamnest. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// SMTPMailer sends email over the configured SMTP relay.
type SMTPMailer struct{}

func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{}
}

func (m *SMTPMailer) SendInvitationEmail(invitation *models.TeamInvitation, team *models.Team, inviter *models.User) error {
	acceptURL := fmt.Sprintf("%s/invitations/%s", config.AppConfig.FrontendURL, invitation.Token)

	data := EmailData{
		Subject:  fmt.Sprintf("Invitation to join %s", team.Name),
		To:       []string{invitation.Email},
		Template: "team_invitation",
		Year:     time.Now().Year(),
		Data: struct {
			Subject     string
			TeamName    string
			InviterName string
			RoleLabel   string
			AcceptURL   string
			ExpiresAt   string
			Year        int
		}{
			Subject:     fmt.Sprintf("Invitation to join %s", team.Name),
			TeamName:    team.Name,
			InviterName: inviter.Name,
			RoleLabel:   invitation.Role.Label(),
			AcceptURL:   acceptURL,
			ExpiresAt:   invitation.ExpiresAt.Format("January 2, 2006"),
			Year:        time.Now().Year(),
		},
	}

	return SendEmail(data)
}

func SendEmail(data EmailData) error {
	if data.FromEmail == "" {
		data.FromEmail = config.AppConfig.FromEmail
	}
	if data.FromName == "" {
		data.FromName = config.AppConfig.FromName
	}

	// Get template from embedded templates
	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return fmt.Errorf("template '%s' not found", data.Template)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", data.FromName, data.FromEmail))
	m.SetHeader("To", data.To...)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}

	return nil
}
