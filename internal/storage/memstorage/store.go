// Package memstorage is an in-process implementation of every repository.
// One writer lock guards all collections, so multi-collection operations
// (redemption, cascading deletes) are atomic. Nothing is persisted; it backs
// tests and the "memory" storage driver.
package memstorage

import (
	"cmp"
	"slices"
	"sync"

	"github.com/makkenzo/entitlement-service/internal/domain/card"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
)

type Store struct {
	mu  sync.RWMutex
	seq int64

	licenses      map[string]*license.License
	cards         map[string]*card.Card
	cipherConfigs map[string]*cipherconfig.Config
	categories    map[string]int64
}

func NewStore() *Store {
	return &Store{
		licenses:      make(map[string]*license.License),
		cards:         make(map[string]*card.Card),
		cipherConfigs: make(map[string]*cipherconfig.Config),
		categories:    make(map[string]int64),
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Licenses() *LicenseRepository {
	return &LicenseRepository{s: s}
}

func (s *Store) Cards() *CardRepository {
	return &CardRepository{s: s}
}

func (s *Store) CipherConfigs() *CipherConfigRepository {
	return &CipherConfigRepository{s: s}
}

func (s *Store) Categories() *CategoryRepository {
	return &CategoryRepository{s: s}
}

// newestFirst returns a page of items sorted by descending sequence.
func newestFirst[T any](items []T, seq func(T) int64, offset, limit int) []T {
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(seq(b), seq(a))
	})
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
