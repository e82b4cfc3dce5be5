package email

import (
	"bytes"
	"fmt"
	"html"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripTags removes every HTML element from s and returns the remaining
// text unescaped.
func StripTags(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f6f8; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="color: #1f2937;">{{.Title}}</h2>
    <p style="color: #374151; line-height: 1.5;">{{.Message}}</p>
    {{- if .Link}}
    <p><a href="{{.Link}}" style="display: inline-block; background: #2563eb; color: #ffffff; padding: 10px 18px; border-radius: 6px; text-decoration: none;">{{.LinkText}}</a></p>
    {{- end}}
    <hr style="border: none; border-top: 1px solid #e5e7eb;">
    <p style="color: #9ca3af; font-size: 12px;">{{.Footer}}</p>
  </div>
</body>
</html>`

var tmpl = template.Must(template.New("email").Parse(layout))

// Content fills the shared email layout. Title and Message may carry user
// input and are reduced to plain text before rendering.
type Content struct {
	Title    string
	Message  string
	Link     string
	LinkText string
	Footer   string
}

const defaultFooter = "You are receiving this email because of your notification settings on Saviya Learn."

// Render produces the HTML body for c.
func Render(c Content) (string, error) {
	c.Title = StripTags(c.Title)
	c.Message = StripTags(c.Message)
	if c.Link != "" && c.LinkText == "" {
		c.LinkText = "Open"
	}
	if c.Footer == "" {
		c.Footer = defaultFooter
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// NotificationMessage builds the email sent for an in-app notification.
func NotificationMessage(to, title, message, link string) (Message, error) {
	body, err := Render(Content{Title: title, Message: message, Link: link, LinkText: "View details"})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: StripTags(title), HTML: body, Text: StripTags(message)}, nil
}

func VerificationMessage(to, link string) (Message, error) {
	body, err := Render(Content{
		Title:    "Verify your email",
		Message:  "Confirm your email address to finish setting up your account. The link is valid for 24 hours.",
		Link:     link,
		LinkText: "Verify email",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Verify your email", HTML: body}, nil
}

func PasswordResetMessage(to, link string) (Message, error) {
	body, err := Render(Content{
		Title:    "Reset your password",
		Message:  "Someone asked to reset the password for this account. The link is valid for one hour. Ignore this email if it was not you.",
		Link:     link,
		LinkText: "Reset password",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Reset your password", HTML: body}, nil
}

func WelcomeMessage(to, name string) (Message, error) {
	body, err := Render(Content{
		Title:   "Welcome to Saviya Learn",
		Message: fmt.Sprintf("Hi %s, your account is ready. Join a learning group to get started.", name),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "Welcome to Saviya Learn", HTML: body}, nil
}
