// Package ratelimit provides a fixed-window request limiter backed by Redis.
package ratelimit
