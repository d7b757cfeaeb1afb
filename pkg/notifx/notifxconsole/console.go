// Package notifxconsole provides an email provider that logs messages
// instead of sending them. Intended for development and tests.
package notifxconsole

import (
	"context"
	"strings"

	"github.com/maix-platform/maix/pkg/logx"
	"github.com/maix-platform/maix/pkg/notifx"
)

// ConsoleProvider prints emails to the log via logx.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)

	entry := logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	})
	for k, v := range so.Tags {
		entry = entry.WithField("tag."+k, v)
	}
	entry.Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
