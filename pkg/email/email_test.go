package email

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStripsMarkup(t *testing.T) {
	body, err := Render(Content{
		Title:   `<script>alert(1)</script>Session <b>starts</b>`,
		Message: `Join <img src=x onerror=alert(1)>now`,
		Link:    "https://meet.example.com/abc",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "<b>")
	assert.NotContains(t, body, "onerror")
	assert.Contains(t, body, "Session starts")
	assert.Contains(t, body, `href="https://meet.example.com/abc"`)
	assert.Contains(t, body, defaultFooter)
}

func TestRenderRejectsScriptLinks(t *testing.T) {
	body, err := Render(Content{Title: "x", Message: "y", Link: "javascript:alert(1)"})
	require.NoError(t, err)
	assert.NotContains(t, body, "javascript:alert")
}

func TestRenderWithoutLinkOmitsButton(t *testing.T) {
	body, err := Render(Content{Title: "Hello", Message: "World"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<a href")
}

func TestNotificationMessage(t *testing.T) {
	msg, err := NotificationMessage("a@example.com", "New <i>member</i>", "Bob joined", "")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", msg.To)
	assert.Equal(t, "New member", msg.Subject)
	assert.Equal(t, "Bob joined", msg.Text)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(Options{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestNewSendGridNeedsKey(t *testing.T) {
	_, err := New(Options{Provider: "sendgrid", From: "App <app@example.com>"})
	assert.Error(t, err)
}

func TestNewLogMailer(t *testing.T) {
	m, err := New(Options{Provider: "log"})
	require.NoError(t, err)
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "hi"}))
}

type failingMailer struct{ calls int }

func (f *failingMailer) Send(context.Context, Message) error {
	f.calls++
	return errors.New("smtp down")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &failingMailer{}
	b := NewBreakerMailer("test", inner)

	for i := 0; i < breakerFailureThreshold; i++ {
		assert.Error(t, b.Send(context.Background(), Message{}))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Send(context.Background(), Message{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, breakerFailureThreshold, inner.calls)
}

func TestStripTagsKeepsPlainText(t *testing.T) {
	assert.Equal(t, "Tom & Jerry's notes", StripTags("Tom & Jerry's <em>notes</em>"))
}

func TestBuildMessageSanitizesHeaders(t *testing.T) {
	raw := string(buildMessage("Saviya <no-reply@saviya.lk>", Message{
		To:      "amal@example.com\r\nBcc: eve@example.com",
		Subject: "Session moved\r\nBcc: eve@example.com",
		HTML:    "<p>hi</p>",
	}))

	assert.NotContains(t, raw, "\r\nBcc:")
	assert.Contains(t, raw, "To: amal@example.comBcc: eve@example.com\r\n")
	assert.Contains(t, raw, "Subject: Session movedBcc: eve@example.com\r\n")
	assert.Contains(t, raw, "\r\n\r\n<p>hi</p>\r\n")
}

func TestBuildMessageEncodesUnicodeSubject(t *testing.T) {
	raw := string(buildMessage("no-reply@saviya.lk", Message{To: "a@example.com", Subject: "සැසිය ආරම්භ විය", HTML: "x"}))

	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.NotContains(t, raw, "සැසිය")
}
