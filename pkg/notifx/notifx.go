// Package notifx defines the notification domain: entity-update events, the
// delivery contract consumed by the job queue, and the email channel with
// its pluggable providers.
package notifx

import "context"

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// Client is the entry point for sending notification emails.
type Client struct {
	provider  EmailSender
	from      string
	templates *TemplateRegistry
}

// NewClient creates a new notification email client.
func NewClient(provider EmailSender, from string) *Client {
	return &Client{
		provider:  provider,
		from:      from,
		templates: NewTemplateRegistry(),
	}
}

// SendEmail sends an email through the configured provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if len(msg.To) == 0 {
		return notifxErrors.NewWithMessage(ErrInvalidMessage, "Email message has no recipients")
	}
	if msg.Subject == "" {
		return notifxErrors.NewWithMessage(ErrInvalidMessage, "Email message has an empty subject")
	}
	if msg.From == "" {
		msg.From = c.from
	}
	return c.provider.SendEmail(ctx, msg, opts...)
}

// RegisterTemplate parses and stores a named template for later use.
func (c *Client) RegisterTemplate(name, tmplString string) error {
	return c.templates.Register(name, tmplString)
}

// SendTemplatedEmail renders a template into the HTML body and sends the
// resulting email.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateName string, data interface{}, msg EmailMessage, opts ...Option) error {
	body, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}

	msg.HTMLBody = body
	return c.SendEmail(ctx, msg, opts...)
}

// SendEntityUpdateEmail renders the built-in entity-update template for the
// event and sends it to the given recipient.
func (c *Client) SendEntityUpdateEmail(ctx context.Context, to string, event *EntityUpdateEvent) error {
	if event == nil || event.EntityID == "" {
		return notifxErrors.New(ErrInvalidEvent)
	}

	msg := EmailMessage{
		To:       []string{to},
		Subject:  event.Title,
		TextBody: event.Message,
	}

	return c.SendTemplatedEmail(ctx, EntityUpdateTemplate, event, msg,
		WithTags(map[string]string{
			"entity_type": string(event.EntityType),
			"update_type": string(event.UpdateType),
		}))
}
