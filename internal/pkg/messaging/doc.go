// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Business code relies on the interfaces here so the underlying system
// (Kafka, NATS, NSQ, Google Pub/Sub) can be swapped through configuration.
package messaging
