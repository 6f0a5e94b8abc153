package memstorage

import (
	"context"
	"fmt"

	"github.com/makkenzo/entitlement-service/internal/domain/card"
	"github.com/makkenzo/entitlement-service/internal/ierr"
)

type CardRepository struct {
	s *Store
}

var _ card.Repository = (*CardRepository)(nil)

func (r *CardRepository) CreateBatch(_ context.Context, cards []*card.Card) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var conflicts []int
	for i, c := range cards {
		if _, ok := r.s.cards[c.CardNumber]; ok {
			conflicts = append(conflicts, i)
			continue
		}
		stored := *c
		stored.Seq = r.s.nextSeq()
		r.s.cards[stored.CardNumber] = &stored
		c.Seq = stored.Seq
	}
	return conflicts, nil
}

func (r *CardRepository) FindByNumber(_ context.Context, cardNumber string) (*card.Card, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.cards[cardNumber]
	if !ok {
		return nil, ierr.ErrCardNotFound
	}
	cardCopy := *c
	return &cardCopy, nil
}

func (r *CardRepository) List(_ context.Context, offset, limit int) ([]*card.Card, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*card.Card, 0, len(r.s.cards))
	for _, c := range r.s.cards {
		cardCopy := *c
		all = append(all, &cardCopy)
	}
	page := newestFirst(all, func(c *card.Card) int64 { return c.Seq }, offset, limit)
	return page, int64(len(all)), nil
}

func (r *CardRepository) Delete(_ context.Context, cardNumber string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cards[cardNumber]; !ok {
		return ierr.ErrCardNotFound
	}
	delete(r.s.cards, cardNumber)
	return nil
}

func (r *CardRepository) Redeem(_ context.Context, req card.RedeemRequest) (*card.Redemption, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lic, ok := r.s.licenses[req.MachineCode]
	if !ok {
		return nil, ierr.ErrLicenseNotFound
	}
	c, ok := r.s.cards[req.CardNumber]
	if !ok || c.CardPassword != req.CardPassword {
		return nil, ierr.ErrCardNotFound
	}
	if c.Used {
		return nil, fmt.Errorf("%w: %s", ierr.ErrAlreadyUsed, req.CardNumber)
	}

	newExpire, err := req.Extend(lic.ExpireDate, c.Days)
	if err != nil {
		return nil, err
	}

	previous := lic.ExpireDate
	lic.ExpireDate = newExpire
	c.Used = true
	c.UsedMachineCode = req.MachineCode
	c.UsedAt = req.UsedAt

	return &card.Redemption{PreviousExpireDate: previous, NewExpireDate: newExpire, Days: c.Days}, nil
}
