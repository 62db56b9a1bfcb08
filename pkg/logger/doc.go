// Package logger provides slog.Attr helpers that keep log attribute keys
// consistent across the MFA engines and channels ("owner", "method",
// "channel", "component", "error", "event").
//
// The library never constructs loggers itself: every service defaults to a
// discarding slog.Logger and accepts the host's logger through functional
// options. These helpers only standardize the attributes attached to records.
package logger
