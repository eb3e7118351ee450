// Package middleware decorates ports.StateStore implementations.
//
// NewEncryptionMiddleware seals sessions with AES-256-GCM before they reach
// the underlying store and supports key rotation through fallback keys.
package middleware
