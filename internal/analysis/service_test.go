package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/db"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/globaltime"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/reconcile"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/search"
	"github.com/adalbafotos-dev/carrinhosbb-affiliate-platform-sub001/internal/similarity"
)

const (
	testSiteURL = "https://carrinhosbb.com.br"
	testSiloID  = "silo-1"
)

func words(prefix string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

type fakeCorpus struct {
	silos   []db.SiloRecord
	posts   []db.PostRecord
	reports []db.UniquenessReportInput
}

func (c *fakeCorpus) GetPost(_ context.Context, postID string) (db.PostRecord, error) {
	for _, post := range c.posts {
		if post.ID == postID {
			return post, nil
		}
	}
	return db.PostRecord{}, db.ErrNoRows
}

func (c *fakeCorpus) ListSiloPosts(_ context.Context, siloID string) ([]db.PostRecord, error) {
	out := make([]db.PostRecord, 0, len(c.posts))
	for _, post := range c.posts {
		if post.SiloID == siloID {
			out = append(out, post)
		}
	}
	return out, nil
}

func (c *fakeCorpus) GetSilo(_ context.Context, siloID string) (db.SiloRecord, error) {
	for _, silo := range c.silos {
		if silo.ID == siloID {
			return silo, nil
		}
	}
	return db.SiloRecord{}, db.ErrNoRows
}

func (c *fakeCorpus) ListSilos(context.Context) ([]db.SiloRecord, error) {
	return c.silos, nil
}

func (c *fakeCorpus) ResolvePostIDsBySlug(_ context.Context, slugs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, slug := range slugs {
		for _, post := range c.posts {
			if post.Slug == slug {
				out[slug] = post.ID
			}
		}
	}
	return out, nil
}

func (c *fakeCorpus) InsertUniquenessReport(_ context.Context, in db.UniquenessReportInput) (string, error) {
	c.reports = append(c.reports, in)
	return fmt.Sprintf("report-%d", len(c.reports)), nil
}

func (c *fakeCorpus) LatestReports(_ context.Context, postID string) ([]db.UniquenessReport, error) {
	latest := map[string]db.UniquenessReport{}
	for i, in := range c.reports {
		if in.PostID != postID {
			continue
		}
		latest[in.Kind] = db.UniquenessReport{
			ID:              fmt.Sprintf("report-%d", i+1),
			PostID:          in.PostID,
			Kind:            in.Kind,
			UniquenessScore: in.UniquenessScore,
			Risk:            in.Risk,
			CreatedAt:       in.CreatedAt,
		}
	}
	out := make([]db.UniquenessReport, 0, len(latest))
	for _, kind := range []string{db.ReportKindExternal, db.ReportKindInternal} {
		if report, ok := latest[kind]; ok {
			out = append(out, report)
		}
	}
	return out, nil
}

func (c *fakeCorpus) ListLinkOccurrences(context.Context, string) ([]db.LinkOccurrence, error) {
	return []db.LinkOccurrence{}, nil
}

type memoryStore struct {
	order []string
	rows  map[string]reconcile.Row
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: map[string]reconcile.Row{}}
}

func (s *memoryStore) LoadExisting(_ context.Context, sourceDocID string) ([]reconcile.Stored, error) {
	out := make([]reconcile.Stored, 0, len(s.order))
	for _, id := range s.order {
		row, ok := s.rows[id]
		if !ok || row[reconcile.ColumnSourceDocID] != sourceDocID {
			continue
		}
		stored := reconcile.Stored{
			ID:         id,
			Key:        row[reconcile.ColumnOccurrenceKey].(string),
			AnchorText: row[reconcile.ColumnAnchorText].(string),
			Href:       row[reconcile.ColumnHref].(string),
		}
		if target, ok := row[reconcile.ColumnTargetDocID].(string); ok {
			stored.TargetDocID = target
		}
		out = append(out, stored)
	}
	return out, nil
}

func (s *memoryStore) DeleteByIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *memoryStore) UpsertByKey(_ context.Context, rows []reconcile.Row) error {
	for _, row := range rows {
		id := row[reconcile.ColumnID].(string)
		if _, exists := s.rows[id]; !exists {
			s.order = append(s.order, id)
		}
		s.rows[id] = row
	}
	return nil
}

type failingSearcher struct {
	failAt int
	calls  int
}

func (f *failingSearcher) Search(_ context.Context, query string) (search.Response, error) {
	f.calls++
	if f.calls == f.failAt {
		return search.Response{}, errors.New("rate limited")
	}
	return search.Response{Query: query}, nil
}

func newTestCorpus() *fakeCorpus {
	shared := words("frase", 18)
	return &fakeCorpus{
		silos: []db.SiloRecord{{ID: testSiloID, Slug: "carrinhos", Name: "Carrinhos"}},
		posts: []db.PostRecord{
			{
				ID:          "p1",
				SiloID:      testSiloID,
				Title:       "Carrinho de bebê compacto",
				Slug:        "carrinho-bebe-compacto",
				Keyword:     "carrinho compacto",
				Language:    "pt-BR",
				ContentHTML: "<p>" + shared + " " + words("atual", 80) + "</p>",
			},
			{
				ID:          "p2",
				SiloID:      testSiloID,
				Title:       "Carrinho de bebê leve",
				Slug:        "carrinho-compacto",
				Language:    "pt-BR",
				ContentHTML: "<p>" + shared + " " + words("irmao", 200) + "</p>",
			},
		},
	}
}

func newTestService(corpus *fakeCorpus, searcher search.Searcher) *Service {
	return NewService(corpus, newMemoryStore(), searcher, Options{
		SiteURL:         testSiteURL,
		DefaultLanguage: "pt-BR",
	}, zerolog.Nop())
}

func TestRunDuplicationStoresInternalReport(t *testing.T) {
	t.Parallel()

	corpus := newTestCorpus()
	service := newTestService(corpus, nil)

	result, err := service.RunDuplication(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "report-1", result.ReportID)
	assert.Equal(t, "pt-br", result.Language)
	assert.Equal(t, 1, result.Report.ComparedCount)
	assert.Equal(t, 1, result.Report.HighRiskChunks)
	require.Len(t, result.Report.Matches, 1)
	assert.Equal(t, "p2", result.Report.Matches[0].SourceID)

	require.Len(t, corpus.reports, 1)
	stored := corpus.reports[0]
	assert.Equal(t, db.ReportKindInternal, stored.Kind)
	assert.Equal(t, result.Report.UniquenessScore, stored.UniquenessScore)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRunDuplicationUnknownPost(t *testing.T) {
	t.Parallel()

	_, err := newTestService(newTestCorpus(), nil).RunDuplication(context.Background(), "missing")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestReportsReturnLatestRunWithFrozenClock(t *testing.T) {
	frozen := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	restore := globaltime.Freeze(frozen)
	defer restore()

	corpus := newTestCorpus()
	service := newTestService(corpus, nil)

	_, err := service.RunDuplication(context.Background(), "p1")
	require.NoError(t, err)
	_, err = service.RunDuplication(context.Background(), "p1")
	require.NoError(t, err)

	reports, err := service.Reports(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "report-2", reports[0].ID)
	assert.Equal(t, db.ReportKindInternal, reports[0].Kind)
	assert.True(t, reports[0].CreatedAt.Equal(frozen))

	_, err = service.Reports(context.Background(), "missing")
	require.ErrorIs(t, err, ErrPostNotFound)
}

func TestRunUniquenessRequiresSearcher(t *testing.T) {
	t.Parallel()

	corpus := newTestCorpus()
	_, err := newTestService(corpus, nil).RunUniqueness(context.Background(), "p1")
	require.ErrorIs(t, err, search.ErrNotConfigured)
	assert.Empty(t, corpus.reports)
}

func TestRunUniquenessStoresPartialReport(t *testing.T) {
	t.Parallel()

	sentences := make([]string, 6)
	for i := range sentences {
		sentences[i] = words(fmt.Sprintf("s%dp", i), 20)
	}
	corpus := newTestCorpus()
	corpus.posts[0].ContentHTML = "<p>" + strings.Join(sentences, ". ") + ".</p>"

	service := newTestService(corpus, &failingSearcher{failAt: 2})
	result, err := service.RunUniqueness(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, result.Report.Partial)
	assert.Equal(t, 1, result.Report.CheckedChunks)
	assert.Contains(t, result.Warning, "rate limited")
	require.Len(t, corpus.reports, 1)
	assert.Equal(t, db.ReportKindExternal, corpus.reports[0].Kind)
	assert.True(t, corpus.reports[0].Partial)
}

func TestRunUniquenessFailsWhenNothingWasChecked(t *testing.T) {
	t.Parallel()

	sentences := make([]string, 6)
	for i := range sentences {
		sentences[i] = words(fmt.Sprintf("s%dp", i), 20)
	}
	corpus := newTestCorpus()
	corpus.posts[0].ContentHTML = "<p>" + strings.Join(sentences, ". ") + ".</p>"

	_, err := newTestService(corpus, &failingSearcher{failAt: 1}).RunUniqueness(context.Background(), "p1")
	require.Error(t, err)
	assert.Empty(t, corpus.reports)
}

func TestSyncLinksResolvesTargetsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	corpus := newTestCorpus()
	corpus.posts[0].ContentHTML = `<p>Veja o <a href="/carrinhos/carrinho-compacto/">modelo compacto</a>,
compre na <a href="https://www.amazon.com.br/dp/B0TEST">Amazon</a> e leia a
<a href="https://g1.globo.com/noticia">reportagem</a>.</p>`
	service := newTestService(corpus, nil)

	first, err := service.SyncLinks(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, LinkCounts{Total: 3, Internal: 1, SiloInternal: 1, External: 1, Affiliate: 1, Resolved: 1}, first.Counts)
	assert.Equal(t, 3, first.Result.Inserted)

	store := service.store.(*memoryStore)
	internalRow := store.rows[first.Result.IDs[0]]
	assert.Equal(t, "p2", internalRow[reconcile.ColumnTargetDocID])
	assert.Equal(t, false, internalRow[reconcile.ColumnRelSponsored])

	second, err := service.SyncLinks(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, second.Result.Kept)
	assert.Zero(t, second.Result.Inserted)
	assert.Zero(t, second.Result.Deleted)
	assert.Equal(t, first.Result.IDs, second.Result.IDs)
}

func TestExtractLinksUsesSiteOptions(t *testing.T) {
	t.Parallel()

	extracted, err := newTestService(newTestCorpus(), nil).ExtractLinks(
		`<p><a href="https://carrinhosbb.com.br/banheiras/banheira-dobravel">banheira</a></p>`, "banheiras")
	require.NoError(t, err)
	require.Len(t, extracted, 1)
	assert.True(t, extracted[0].IsInternal)
	assert.True(t, extracted[0].IsSiloInternal)
}

func TestCannibalizationUnknownSilo(t *testing.T) {
	t.Parallel()

	_, err := newTestService(newTestCorpus(), nil).Cannibalization(context.Background(), "nope", false)
	require.ErrorIs(t, err, ErrSiloNotFound)
}

func TestCannibalizationComparesSiloPosts(t *testing.T) {
	t.Parallel()

	report, err := newTestService(newTestCorpus(), nil).Cannibalization(context.Background(), testSiloID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PostCount)
	require.Len(t, report.Pairs, 1)
	assert.Zero(t, report.SerpChecked)
	assert.Contains(t, []similarity.Risk{similarity.RiskLow, similarity.RiskMedium, similarity.RiskHigh}, report.Pairs[0].Risk)
}

func TestSweepVisitsEveryPost(t *testing.T) {
	t.Parallel()

	corpus := newTestCorpus()
	corpus.posts[0].ContentHTML += `<p><a href="/carrinhos/carrinho-compacto">irmão</a></p>`

	result, err := newTestService(corpus, nil).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Silos)
	assert.Equal(t, 2, result.Posts)
	assert.Zero(t, result.LinkFailures)
	assert.Equal(t, 1, result.LinksInserted)
}

func TestSlugFromPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/carrinhos/carrinho-compacto/": "carrinho-compacto",
		"/Sobre":                        "sobre",
		"/":                             "",
		"":                              "",
	}
	for path, want := range cases {
		assert.Equal(t, want, slugFromPath(path), path)
	}
}
