package card

import (
	"context"
)

// ExtendFunc maps a license's current expiry to its expiry after days more.
type ExtendFunc func(currentExpire string, days int) (string, error)

type RedeemRequest struct {
	MachineCode  string
	CardNumber   string
	CardPassword string
	UsedAt       string
	Extend       ExtendFunc
}

type Redemption struct {
	PreviousExpireDate string
	NewExpireDate      string
	Days               int
}

type Repository interface {
	// CreateBatch inserts cards whose numbers are free and returns the
	// indexes of the cards that collided with an existing number.
	CreateBatch(ctx context.Context, cards []*Card) (conflicts []int, err error)
	FindByNumber(ctx context.Context, cardNumber string) (*Card, error)
	List(ctx context.Context, offset, limit int) ([]*Card, int64, error)
	Delete(ctx context.Context, cardNumber string) error
	// Redeem consumes the card and extends the license as one unit: either
	// both changes are stored or neither is.
	Redeem(ctx context.Context, req RedeemRequest) (*Redemption, error)
}
