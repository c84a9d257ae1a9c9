// Package otp generates short-lived numeric one-time codes.
//
// Codes prove control of an email address during signup. They are drawn
// uniformly at random, left-zero-padded, and represented as strings so
// leading zeros survive transport and storage.
package otp
