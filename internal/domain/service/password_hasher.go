// Package service defines the domain-facing contracts implemented in infra.
package service

// PasswordHasher protects credentials on the legacy password channel.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Check reports whether password matches hash. Malformed hashes never match.
	Check(password, hash string) bool
}
