package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Owner records the protected account identity under the key "owner".
// The value is expected to be an OwnerRef or its string form; plaintext
// secrets and tokens must never be passed here.
func Owner(ref any) slog.Attr {
	if ref == nil {
		return slog.Attr{}
	}
	return slog.Any("owner", ref)
}

// Method records an MFA method name under the key "method".
func Method(name string) slog.Attr {
	return slog.String("method", name)
}

// Channel records a delivery channel name under the key "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// Event records the event name under the key "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}
