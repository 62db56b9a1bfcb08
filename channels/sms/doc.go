// Package sms delivers MFA challenge codes by text message.
//
// The package defines the Sender seam for provider APIs and ships a
// structured-log sender for development. Recipients are probed for
// mfa.PhoneNumberProvider; accounts without a phone number are skipped
// without error.
package sms
