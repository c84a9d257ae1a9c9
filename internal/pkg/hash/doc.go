// Package hash provides helpers for hashing and verifying secrets.
//
// Two families of hashers live here behind one small interface: slow
// password hashers (bcrypt, argon2id) for credentials that must survive
// offline attacks, and a keyed HMAC for short-lived one-time codes where
// throughput matters more than work factor.
package hash
