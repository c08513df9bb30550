package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tokenherald/internal/criteria"
	"tokenherald/internal/services/status"
	"tokenherald/internal/storage"
	"tokenherald/internal/token"
	"tokenherald/internal/transport"
	"tokenherald/pkg/logx"
)

// tick runs one full scan cycle. trigger names who fired it (schedule,
// startup, manual) for the logs.
func (s *Service) tick(ctx context.Context, trigger string) {
	if !s.beginTick() {
		s.log.Debug("tick skipped, previous still running", logx.String("trigger", trigger))
		s.deps.Status.RecordOutcome(status.OutcomeSkipped, trigger)
		return
	}
	defer s.endTick()

	cfg := s.config()
	ctx, cancel := context.WithTimeout(ctx, cfg.TickTimeout)
	defer cancel()

	tickID := uuid.NewString()[:8]
	log := s.log.With(logx.String("tick", tickID), logx.String("trigger", trigger))
	st := s.deps.Status
	st.ScanStarted(time.Now())

	count, err := s.deps.Store.CountAll(ctx)
	if err != nil {
		st.SetStoreConnected(false)
		st.RecordOutcome(status.OutcomeFailed, "store unreachable")
		log.Warn("store probe failed", logx.Err(err))
		return
	}
	st.SetStoreConnected(true)
	st.SetTokenCount(count)

	cands := s.selectCandidates(ctx, log, cfg)
	if len(cands) == 0 {
		st.RecordOutcome(status.OutcomeNoop, "no candidates")
		log.Debug("no candidates this tick")
		return
	}

	for _, cand := range cands {
		announced, stop := s.process(ctx, log, cfg, cand)
		if announced {
			// One announcement per tick, always.
			return
		}
		if stop {
			return
		}
	}
	st.RecordOutcome(status.OutcomeNoop, "no qualifier")
	log.Debug("tick done, nothing qualified", logx.Int("examined", len(cands)))
}

// selectCandidates prefers the status-filtered scan; when it yields
// nothing (or fails) the market-cap ranking is the fallback so a store
// full of unusual statuses still gets looked at.
func (s *Service) selectCandidates(ctx context.Context, log logx.Logger, cfg Config) []token.Token {
	cands, err := s.deps.Store.Candidates(ctx, cfg.Thresholds.NormalizedStatuses(), cfg.BatchLimit)
	if err != nil {
		log.Warn("candidate scan failed, trying market-cap fallback", logx.Err(err))
	}
	if len(cands) > 0 {
		return cands
	}
	cands, err = s.deps.Store.TopByMarketCap(ctx, cfg.BatchLimit)
	if err != nil {
		log.Warn("market-cap fallback failed", logx.Err(err))
		return nil
	}
	return cands
}

// process takes one candidate through validate, generate, publish and
// mark. It reports whether an announcement went out and whether the
// tick should stop examining further candidates.
func (s *Service) process(ctx context.Context, log logx.Logger, cfg Config, cand token.Token) (announced, stop bool) {
	st := s.deps.Status

	if strings.TrimSpace(cand.ID) == "" {
		log.Warn("candidate has no identity, skipping", logx.String("name", cand.Name), logx.Err(ErrInvalidIdentity))
		return false, false
	}
	log = log.With(logx.String("token", cand.ID), logx.String("symbol", cand.Symbol))

	if s.seen.Seen(cand.ID) {
		log.Debug("recently announced, skipping")
		return false, false
	}

	// Re-read right before acting: the store is mutable and the row
	// may have changed since the scan selected it.
	fresh, err := s.deps.Store.Get(ctx, cand.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Debug("candidate vanished between scan and publish")
			return false, false
		}
		log.Warn("re-validation read failed", logx.Err(err))
		return false, true
	}
	if fresh.Announced || fresh.Poisoned {
		s.seen.Add(fresh.ID)
		log.Debug("already handled", logx.Bool("announced", fresh.Announced), logx.Bool("poisoned", fresh.Poisoned))
		return false, false
	}

	res := criteria.Evaluate(fresh, cfg.Thresholds)
	if !res.Pass() {
		log.Debug("criteria not met",
			logx.Bool("market_cap_ok", res.MarketCapOK),
			logx.Bool("liquidity_ok", res.LiquidityOK),
			logx.Bool("status_ok", res.StatusOK),
			logx.Float64("market_cap", fresh.MarketCap),
			logx.Float64("liquidity", fresh.Liquidity),
			logx.String("status", fresh.Status))
		return false, false
	}

	text, err := s.generateText(ctx, fresh)
	if err != nil {
		st.Log("warn", "generation failed for "+fresh.Symbol)
		log.Warn("generation failed, token stays eligible", logx.Err(err))
		return false, false
	}

	return s.publish(ctx, log, fresh, text)
}

func (s *Service) generateText(ctx context.Context, tok token.Token) (string, error) {
	if s.deps.Generator == nil {
		return "", ErrGenerationFailed
	}
	text, err := s.deps.Generator.Generate(ctx, tok)
	if err != nil {
		return "", errors.Join(ErrGenerationFailed, err)
	}
	return text, nil
}

func (s *Service) publish(ctx context.Context, log logx.Logger, tok token.Token, text string) (announced, stop bool) {
	st := s.deps.Status
	if s.deps.Publisher == nil {
		log.Debug("no publisher configured, holding announcement")
		return false, true
	}

	receipt, err := s.deps.Publisher.Publish(ctx, text)
	switch {
	case err == nil:
		st.SetChannelConnected(true)
	case errors.Is(err, transport.ErrRateLimited):
		// Budget exhausted for every later candidate too; the token
		// stays eligible for the next tick.
		st.RecordOutcome(status.OutcomeNoop, "publish budget exhausted")
		log.Info("publish budget exhausted, deferring")
		return false, true
	case errors.Is(err, transport.ErrContentRejected):
		if _, perr := s.deps.Store.MarkPoisoned(ctx, tok.ID); perr != nil {
			log.Error("mark poisoned failed", logx.Err(perr))
		}
		s.seen.Add(tok.ID)
		st.Log("warn", "content rejected, poisoned "+tok.Symbol)
		log.Warn("content rejected by channel, token poisoned", logx.Err(err))
		return false, false
	case transport.IsConnectivity(err):
		st.SetChannelConnected(false)
		st.RecordOutcome(status.OutcomeFailed, "channel unreachable")
		log.Warn("channel unreachable", logx.Err(err))
		return false, true
	default:
		st.RecordOutcome(status.OutcomeFailed, "publish failed")
		log.Error("publish failed", logx.Err(err))
		return false, true
	}

	// The message is out; everything past this point must not lose it.
	s.seen.Add(tok.ID)
	n, err := s.deps.Store.MarkAnnounced(ctx, tok.ID, receipt.ID, text, receipt.At)
	if err != nil {
		// Announcement went out but the mark did not stick. Loud log:
		// the token may be re-announced after the dedup set forgets it.
		log.Error("published but mark-announced failed", logx.String("publish_id", receipt.ID), logx.Err(err))
	} else if n == 0 {
		log.Warn("token was already marked announced", logx.String("publish_id", receipt.ID))
	}

	st.RecordAnnouncement(status.Announcement{
		TokenID:   tok.ID,
		Symbol:    tok.Symbol,
		Text:      text,
		PublishID: receipt.ID,
		At:        receipt.At,
	})
	log.Info("token announced",
		logx.String("publish_id", receipt.ID),
		logx.Int("text_len", len(text)))
	return true, false
}
