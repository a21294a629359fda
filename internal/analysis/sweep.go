package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/globaltime"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
)

type SweepResult struct {
	Silos         int           `json:"silos"`
	Posts         int           `json:"posts"`
	LinkFailures  int           `json:"link_failures"`
	LinksInserted int           `json:"links_inserted"`
	LinksDeleted  int           `json:"links_deleted"`
	HighRiskPairs int           `json:"high_risk_pairs"`
	Duration      time.Duration `json:"duration"`
}

// Sweep syncs the links of every post and logs high-risk cannibalization
// pairs per silo. Per-post failures are logged and counted; only listing
// failures and cancellation abort the sweep.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	started := globaltime.Now()
	var result SweepResult

	silos, err := s.corpus.ListSilos(ctx)
	if err != nil {
		return result, fmt.Errorf("list silos: %w", err)
	}

	for _, silo := range silos {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		posts, err := s.corpus.ListSiloPosts(ctx, silo.ID)
		if err != nil {
			return result, fmt.Errorf("list posts of silo %s: %w", silo.Slug, err)
		}
		result.Silos++

		for _, post := range posts {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			result.Posts++
			synced, err := s.SyncLinks(ctx, post.ID)
			if err != nil {
				result.LinkFailures++
				s.logger.Warn().Err(err).Str("post_id", post.ID).Str("silo", silo.Slug).Msg("link sync failed")
				continue
			}
			result.LinksInserted += synced.Result.Inserted
			result.LinksDeleted += synced.Result.Deleted
		}

		report, err := s.Cannibalization(ctx, silo.ID, false)
		if err != nil {
			s.logger.Warn().Err(err).Str("silo", silo.Slug).Msg("cannibalization check failed")
			continue
		}
		for _, pair := range report.Pairs {
			if pair.Risk != similarity.RiskHigh {
				continue
			}
			result.HighRiskPairs++
			s.logger.Warn().
				Str("silo", silo.Slug).
				Str("post_a_id", pair.PostAID).
				Str("post_b_id", pair.PostBID).
				Float64("similarity", pair.Similarity).
				Strs("shared_terms", pair.SharedTerms).
				Msg("high cannibalization risk")
		}
	}

	result.Duration = globaltime.Now().Sub(started)
	s.logger.Info().
		Int("silos", result.Silos).
		Int("posts", result.Posts).
		Int("link_failures", result.LinkFailures).
		Int("high_risk_pairs", result.HighRiskPairs).
		Dur("duration", result.Duration).
		Msg("sweep finished")
	return result, nil
}
