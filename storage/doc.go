// Package storage defines the persistence interfaces of the matching core:
// the vector store, the concept label corpus, tenant activations, index
// snapshot metadata and the append-only query log. Implementations live in
// subpackages (currently BadgerDB).
package storage
