package service

import (
	"context"
	"time"

	"finance_tracker/internal/logger"
	"finance_tracker/internal/repository"
)

// SweeperService prunes refresh tokens that are past their expiry. Revoked
// but unexpired rows are kept: a later presentation of one is how token
// reuse is detected.
type SweeperService struct {
	tokens repository.RefreshTokens
	log    *logger.Logger
	now    func() time.Time
}

func NewSweeperService(tokens repository.RefreshTokens, log *logger.Logger) *SweeperService {
	if log == nil {
		log = logger.Nop()
	}
	return &SweeperService{tokens: tokens, log: log, now: time.Now}
}

// Run sweeps every tick until ctx is canceled. A non-positive tick disables it.
func (s *SweeperService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

// sweep runs one pass and returns how many rows were removed.
func (s *SweeperService) sweep(ctx context.Context) int64 {
	n, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.log.Errorw("refresh_sweep_failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Infow("refresh_sweep", "deleted", n)
	}
	return n
}
