package service

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

// ReplayGuard reports whether a signature is seen for the first time.
type ReplayGuard interface {
	FirstSeen(ctx context.Context, signature string) (bool, error)
}

// SignatureAuthenticator checks login requests signed as
// md5(machineCode + timestamp + secret) in lowercase hex. The freshness
// window and replay guard are optional hardening on top of that scheme.
type SignatureAuthenticator struct {
	secret  string
	maxSkew time.Duration
	guard   ReplayGuard
	clock   clock.Clock
	logger  *zap.Logger
}

// NewSignatureAuthenticator builds the authenticator. guard may be nil.
func NewSignatureAuthenticator(cfg *config.SignatureConfig, clk clock.Clock, guard ReplayGuard, logger *zap.Logger) *SignatureAuthenticator {
	return &SignatureAuthenticator{
		secret:  cfg.Secret,
		maxSkew: cfg.MaxSkew,
		guard:   guard,
		clock:   clk,
		logger:  logger.Named("SignatureAuthenticator"),
	}
}

// Sign computes the signature a client is expected to send.
func (a *SignatureAuthenticator) Sign(machineCode, timestamp string) string {
	sum := md5.Sum([]byte(machineCode + timestamp + a.secret))
	return hex.EncodeToString(sum[:])
}

func (a *SignatureAuthenticator) Verify(ctx context.Context, machineCode, timestamp, signature string) error {
	if timestamp == "" || signature == "" {
		return ierr.ErrMissingSignature
	}

	expected := a.Sign(machineCode, timestamp)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		a.logger.Warn("Signature mismatch", zap.String("machine_code", machineCode))
		return ierr.ErrInvalidSignature
	}

	if a.maxSkew > 0 {
		if err := a.checkFreshness(timestamp); err != nil {
			a.logger.Warn("Stale login signature", zap.String("machine_code", machineCode), zap.Error(err))
			return err
		}
	}

	if a.guard != nil {
		first, err := a.guard.FirstSeen(ctx, signature)
		if err != nil {
			a.logger.Error("Replay guard unavailable", zap.Error(err))
			return fmt.Errorf("%w: replay guard unavailable", ierr.ErrInvalidSignature)
		}
		if !first {
			a.logger.Warn("Replayed login signature", zap.String("machine_code", machineCode))
			return fmt.Errorf("%w: signature already used", ierr.ErrInvalidSignature)
		}
	}
	return nil
}

func (a *SignatureAuthenticator) checkFreshness(timestamp string) error {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp is not unix seconds", ierr.ErrInvalidSignature)
	}
	skew := a.clock.Now().Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > a.maxSkew {
		return fmt.Errorf("%w: timestamp outside the allowed window", ierr.ErrInvalidSignature)
	}
	return nil
}
