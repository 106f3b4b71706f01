// Copyright 2025 MarketLounge
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

// Stores bundles all repositories over one backend, mainly for tests and
// the engine facade.
type Stores struct {
	Backend     *Backend
	Vectors     *VectorRepository
	Concepts    *ConceptRepository
	Activations *ActivationRepository
	Snapshots   *SnapshotRepository
	QueryLog    *QueryLogRepository
}

// Close closes every repository and the backend.
func (s *Stores) Close() error {
	s.QueryLog.Close()
	s.Snapshots.Close()
	s.Activations.Close()
	s.Concepts.Close()
	s.Vectors.Close()
	return s.Backend.Close()
}

// NewMemoryStores creates in-memory repositories for testing.
// Caller must close the returned Stores when done.
func NewMemoryStores() (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newStores(backend)
}

// NewStores opens a durable backend at path with all repositories.
func NewStores(path string) (*Stores, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStores(backend)
}

func newStores(backend *Backend) (*Stores, error) {
	vectors, err := NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	concepts, err := NewConceptRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	activations, err := NewActivationRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	snapshots, err := NewSnapshotRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	queryLog, err := NewQueryLogRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Stores{
		Backend:     backend,
		Vectors:     vectors,
		Concepts:    concepts,
		Activations: activations,
		Snapshots:   snapshots,
		QueryLog:    queryLog,
	}, nil
}
