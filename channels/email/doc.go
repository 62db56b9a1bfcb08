// Package email delivers MFA challenge codes over email.
//
// The channel renders a minimal HTML message around the code and hands it to
// a Sender. Two senders ship with the package: a Postmark-backed transport
// for production and a structured-log sender for development. Recipients are
// probed for mfa.EmailAddressProvider; accounts without an email address are
// skipped without error.
//
// # Usage
//
//	sender, err := email.NewPostmarkSender(email.Config{
//	    PostmarkServerToken:  serverToken,
//	    PostmarkAccountToken: accountToken,
//	    SenderEmail:          "no-reply@example.com",
//	    SupportEmail:         "support@example.com",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	channel, err := email.NewChannel(sender, email.WithSubject("Your login code"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc, err := mfa.New(cfg, store, mfa.WithChannels(channel))
package email
