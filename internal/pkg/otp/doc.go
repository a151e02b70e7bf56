// Package otp provides a time-based one-time code generator whose codes
// are bound to a subject identifier in addition to the current time
// slice, so a code minted for one account never validates for another.
//
// Codes are derived with HMAC and RFC 4226-style dynamic truncation and
// are verified against a small window of adjacent time slices to
// tolerate clock and delivery skew.
package otp
