// Package qrcode renders otpauth URIs (or any other string) as QR code
// images, either as raw PNG bytes or as a base64 data URI that can be dropped
// straight into an <img> tag on an MFA enrollment page.
//
// It is a thin wrapper around github.com/skip2/go-qrcode with input
// validation and sensible defaults; the TOTP engine produces the URI, this
// package only handles presentation.
//
// # Usage
//
//	uri, _ := totp.OtpAuthURI(params)
//	dataURI, err := qrcode.GenerateDataURI(uri, 200)
//	if err != nil {
//		// handle error
//	}
//	// <img src="{{dataURI}}">
//
// # Error Handling
//
// Both functions return sentinel errors (ErrEmptyContent,
// ErrFailedToGenerate) that can be matched with errors.Is.
package qrcode
