// Package mail defines the contract for sending email messages.
//
// Use cases depend on the Mail interface and Message payload only; the
// concrete delivery mechanism (SMTP here, an API provider later) stays
// swappable behind it.
package mail
