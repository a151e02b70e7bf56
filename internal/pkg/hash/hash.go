package hash

// Hash abstracts one-way hashing of secrets.
//
// Hash returns the stored representation of a plaintext; Verify compares a
// plaintext against a previously produced representation.
type Hash interface {
	// Hash takes a plaintext string and returns its hashed representation.
	Hash(str string) ([]byte, error)

	// Verify checks whether the plaintext string matches the given hash.
	Verify(hashed, str string) bool
}
