package hash

// Hash turns a plaintext secret into a digest and verifies candidates
// against a stored digest. Implementations must be safe for concurrent use.
type Hash interface {
	// Hash hashes plaintext and returns the encoded digest.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches the stored digest.
	Verify(digest, plaintext string) bool
}
