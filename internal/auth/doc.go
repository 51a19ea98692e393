// Package auth issues and verifies the bearer tokens that guard the
// control API.
//
// Tokens are HS256 JWTs signed with a shared secret from the configuration.
// There is no user store: anyone holding the secret can mint a token with
// "healthmon token", and a token is valid until it expires.
package auth
