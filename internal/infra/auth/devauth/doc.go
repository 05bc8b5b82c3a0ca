// Package devauth maps development test tokens to canned LINE identities.
//
// The matching code only exists in binaries built with the devauth build tag:
//
//	go build -tags devauth ./cmd/bazaar
//
// Default builds compile a resolver that never matches, so production images
// cannot reach the bypass regardless of configuration.
package devauth
