package memstorage

import (
	"context"
	"fmt"

	"github.com/makkenzo/entitlement-service/internal/domain/category"
	"github.com/makkenzo/entitlement-service/internal/ierr"
)

type CategoryRepository struct {
	s *Store
}

var _ category.Repository = (*CategoryRepository)(nil)

func (r *CategoryRepository) Create(_ context.Context, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[name]; ok {
		return fmt.Errorf("%w: category %q", ierr.ErrAlreadyExists, name)
	}
	r.s.categories[name] = r.s.nextSeq()
	return nil
}

func (r *CategoryRepository) Delete(_ context.Context, name string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[name]; !ok {
		return 0, ierr.ErrCategoryNotFound
	}

	var cleared int64
	for _, lic := range r.s.licenses {
		if lic.Category == name {
			lic.Category = ""
			cleared++
		}
	}
	delete(r.s.categories, name)
	return cleared, nil
}

func (r *CategoryRepository) List(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	type entry struct {
		name string
		seq  int64
	}
	entries := make([]entry, 0, len(r.s.categories))
	for name, seq := range r.s.categories {
		entries = append(entries, entry{name: name, seq: seq})
	}
	entries = newestFirst(entries, func(e entry) int64 { return -e.seq }, 0, 0)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names, nil
}
