// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Pending-signup expiry and token lifetimes are all
// derived from this clock, which lets tests pin time to a fixed instant.
package clock
