// Package mock provides a deterministic in-process encoder for tests.
package mock
