package mfa

import (
	"context"
	"fmt"
)

// SendOptions carries per-send overrides a host may apply when delivering a
// challenge code.
type SendOptions struct {
	// Subject overrides the email subject line, when the channel supports one.
	Subject string
	// Message overrides the message body template.
	Message string
}

// Channel delivers challenge codes to an account over one transport. The
// recipient is the host's account value; implementations probe it for the
// contact capability they need (EmailAddressProvider, PhoneNumberProvider)
// and degrade to a no-op when it is absent.
//
// Delivery is best-effort from the challenge engine's perspective: the
// challenge record is durably created before Send is attempted, and a Send
// error never rolls it back.
type Channel interface {
	// Name returns the channel's registry name, e.g. "email" or "sms".
	Name() string
	// Send delivers the plaintext code to the recipient.
	Send(ctx context.Context, recipient any, code string, opts SendOptions) error
}

// ChannelSettings is the configuration bundle for one channel instance. Type
// names the factory that builds the channel; Options carries the factory's
// own settings.
type ChannelSettings struct {
	Type    string
	Enabled bool
	Options map[string]string
}

// ChannelFactory builds a channel from its settings.
type ChannelFactory func(settings ChannelSettings) (Channel, error)

// Factories maps channel type names to constructors. Every type a
// configuration may reference has to be registered here at compile time;
// Build validates references before anything is instantiated, so a typo in
// config fails startup instead of the first delivery.
type Factories map[string]ChannelFactory

// Build instantiates a channel per settings entry. An entry whose Type does
// not name a registered factory is a configuration error and fails the whole
// build; entries with Enabled=false are skipped.
func (f Factories) Build(settings map[string]ChannelSettings) ([]Channel, error) {
	channels := make([]Channel, 0, len(settings))
	for name, s := range settings {
		factory, ok := f[s.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %q references type %q", ErrUnknownChannelType, name, s.Type)
		}
		if !s.Enabled {
			continue
		}
		channel, err := factory(s)
		if err != nil {
			return nil, fmt.Errorf("building channel %q: %w", name, err)
		}
		channels = append(channels, channel)
	}
	return channels, nil
}
