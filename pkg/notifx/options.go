package notifx

// SendOptions holds optional configuration for a send operation.
type SendOptions struct {
	Tags map[string]string
}

// Option is a functional option for send operations.
type Option func(*SendOptions)

// WithTags adds metadata tags to the send operation. Providers that support
// message tagging attach them to the outgoing message.
func WithTags(tags map[string]string) Option {
	return func(o *SendOptions) {
		o.Tags = tags
	}
}

// ApplySendOptions folds a list of options into a SendOptions value.
// Exported for use by provider subpackages.
func ApplySendOptions(opts []Option) SendOptions {
	var so SendOptions
	for _, o := range opts {
		o(&so)
	}
	return so
}
