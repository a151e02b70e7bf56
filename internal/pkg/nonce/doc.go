// Package nonce provides a single-use marker store for replay
// protection. A nonce, once marked, stays marked for its TTL and causes
// every later verification referencing it to fail.
//
// Two backends are provided: Redis (SET NX) for multi-instance
// deployments and an in-process map with a periodic sweep for tests and
// single-node setups. Both give atomic check-and-set semantics, so
// exactly one of any number of concurrent callers wins a given nonce.
package nonce
