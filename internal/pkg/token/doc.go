// Package token issues and verifies the signed envelopes that carry a
// multi-step workflow's state through the client instead of a server
// session. Two envelope kinds exist: the session token, which binds a
// subject to one named workflow step and to a one-time-code commitment,
// and the secure payload, which carries arbitrary step data.
//
// Every envelope is single-use. Consumption is recorded in a nonce
// ledger at the moment an envelope is accepted, so failed verifications
// do not burn the envelope.
package token
