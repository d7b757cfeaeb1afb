package notifx

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maix-platform/maix/pkg/errx"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []EmailMessage
	options  []SendOptions
	err      error
}

func (s *recordingSender) SendEmail(_ context.Context, msg EmailMessage, opts ...Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.options = append(s.options, ApplySendOptions(opts))
	return s.err
}

func TestSendEmailFillsDefaultFrom(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	err := client.SendEmail(context.Background(), EmailMessage{
		To:      []string{"ana@example.com"},
		Subject: "hello",
	})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "noreply@maix.org", sender.messages[0].From)
}

func TestSendEmailKeepsExplicitFrom(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	err := client.SendEmail(context.Background(), EmailMessage{
		From:    "alerts@maix.org",
		To:      []string{"ana@example.com"},
		Subject: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "alerts@maix.org", sender.messages[0].From)
}

func TestSendEmailValidation(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	tests := []struct {
		name    string
		msg     EmailMessage
		wantMsg string
	}{
		{"no recipients", EmailMessage{Subject: "hello"}, "no recipients"},
		{"empty subject", EmailMessage{To: []string{"ana@example.com"}}, "empty subject"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.SendEmail(context.Background(), tt.msg)
			var rich *errx.Error
			require.True(t, errx.As(err, &rich))
			assert.Equal(t, "NOTIFX_INVALID_MESSAGE", rich.Code)
			assert.Contains(t, rich.Message, tt.wantMsg)
			assert.Empty(t, sender.messages)
		})
	}
}

func TestSendTemplatedEmailRendersBody(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")
	require.NoError(t, client.RegisterTemplate("welcome", "<p>Hi {{.Name}}</p>"))

	err := client.SendTemplatedEmail(context.Background(), "welcome",
		map[string]string{"Name": "Ana"},
		EmailMessage{To: []string{"ana@example.com"}, Subject: "Welcome"})
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	assert.Equal(t, "<p>Hi Ana</p>", sender.messages[0].HTMLBody)
}

func TestSendTemplatedEmailUnknownTemplate(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	err := client.SendTemplatedEmail(context.Background(), "nope", nil,
		EmailMessage{To: []string{"ana@example.com"}, Subject: "s"})

	var rich *errx.Error
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "NOTIFX_TEMPLATE_NOT_FOUND", rich.Code)
	assert.Empty(t, sender.messages)
}

func TestSendEntityUpdateEmail(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	event := &EntityUpdateEvent{
		EntityID:   "project-123",
		EntityType: EntityProject,
		UpdateType: UpdateProject,
		Title:      "Project Updated",
		Message:    "Milestone reached",
	}

	err := client.SendEntityUpdateEmail(context.Background(), "ana@example.com", event)
	require.NoError(t, err)

	require.Len(t, sender.messages, 1)
	msg := sender.messages[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.To)
	assert.Equal(t, "Project Updated", msg.Subject)
	assert.Equal(t, "Milestone reached", msg.TextBody)
	assert.Contains(t, msg.HTMLBody, "<h2>Project Updated</h2>")
	assert.Contains(t, msg.HTMLBody, "project-123")

	require.Len(t, sender.options, 1)
	assert.Equal(t, "PROJECT", sender.options[0].Tags["entity_type"])
	assert.Equal(t, "PROJECT_UPDATE", sender.options[0].Tags["update_type"])
}

func TestSendEntityUpdateEmailRejectsEmptyEvent(t *testing.T) {
	sender := &recordingSender{}
	client := NewClient(sender, "noreply@maix.org")

	err := client.SendEntityUpdateEmail(context.Background(), "ana@example.com", nil)
	var rich *errx.Error
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "NOTIFX_INVALID_EVENT", rich.Code)

	err = client.SendEntityUpdateEmail(context.Background(), "ana@example.com", &EntityUpdateEvent{})
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "NOTIFX_INVALID_EVENT", rich.Code)
}

func TestTemplateRegistryRejectsBadTemplate(t *testing.T) {
	r := NewTemplateRegistry()

	err := r.Register("broken", "{{.Unclosed")
	var rich *errx.Error
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "NOTIFX_TEMPLATE_PARSE", rich.Code)
}

func TestTemplateRegistryEscapesHTML(t *testing.T) {
	r := NewTemplateRegistry()

	out, err := r.Render(EntityUpdateTemplate, &EntityUpdateEvent{
		EntityID:   "p1",
		EntityType: EntityProject,
		UpdateType: UpdateProject,
		Title:      "<script>alert(1)</script>",
		Message:    "m",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}
