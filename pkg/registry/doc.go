// Package registry keeps named machine definitions for the servers and CLI.
package registry
