package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/order"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/plan"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/query"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
	"github.com/kailas-cloud/mapsearch/internal/logger"
	"github.com/kailas-cloud/mapsearch/internal/metrics"
)

// Page is one page of search results in rank order.
type Page struct {
	Items    []playlist.Playlist
	Order    order.Order
	Total    int
	Page     int
	PageSize int
}

// Service runs playlist searches: index for ranking, relational store for records.
type Service struct {
	index   Index
	records Records
	tx      Transactor
}

// New creates a search service.
func New(index Index, records Records, tx Transactor) *Service {
	return &Service{index: index, records: records, tx: tx}
}

// Search parses and compiles req, ranks ids with the index and hydrates them
// with exactly one batched fetch. Either step failing fails the request.
func (s *Service) Search(ctx context.Context, req *request.Search, vis playlist.Visibility) (Page, error) {
	start := time.Now()

	parsed := query.Parse(req.Query())
	sorting := order.Resolve(req.SortOrder(), parsed, req.Seed())
	ctx, log := logger.With(ctx, zap.String("sort_order", string(sorting.Order())))
	if sorting.Downgraded() {
		metrics.SortDowngradesTotal.Inc()
		log.Debug("relevance sort without free text, using latest",
			zap.String("query", parsed.Original()))
	}

	page := Page{Order: sorting.Order(), Page: req.Page(), PageSize: req.PageSize()}

	err := s.tx.ReadOnly(ctx, func(ctx context.Context) error {
		attrs, err := s.resolveAttributes(ctx, parsed)
		if err != nil {
			return err
		}

		q := plan.Query{
			Parsed: parsed,
			Filter: Compile(req, attrs, vis),
			Order:  sorting,
			Offset: req.Offset(),
			Limit:  req.PageSize(),
		}
		log.Debug("index query", zap.Stringer("filter", q.Filter))

		indexStart := time.Now()
		set, err := s.index.Execute(ctx, q)
		metrics.IndexQueryDuration.WithLabelValues(metrics.StatusLabel(err)).Observe(time.Since(indexStart).Seconds())
		if err != nil {
			return fmt.Errorf("execute index query: %w", err)
		}
		page.Total = set.Total()
		if set.IsEmpty() {
			return nil
		}

		records, err := s.records.FetchByIDs(ctx, set.IDs())
		if err != nil {
			return fmt.Errorf("fetch records: %w", err)
		}

		items, dropped := Reconcile(set, records, func(p playlist.Playlist) int64 { return p.ID })
		if dropped > 0 {
			metrics.ReconcileDroppedTotal.Add(float64(dropped))
			log.Debug("index hits without records", zap.Int("dropped", dropped))
		}
		page.Items = items
		return nil
	})

	metrics.SearchRequestsTotal.WithLabelValues(string(sorting.Order()), metrics.StatusLabel(err)).Inc()
	metrics.SearchDuration.WithLabelValues(string(sorting.Order())).Observe(time.Since(start).Seconds())
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

// resolveAttributes maps mapper: and curator: names to user ids. Names that
// resolve to nothing add no constraint.
func (s *Service) resolveAttributes(ctx context.Context, parsed query.Parsed) (Attributes, error) {
	var attrs Attributes

	if names := parsed.Values(query.AttrMapper); len(names) > 0 {
		ids, err := s.records.FindUserIDsByName(ctx, names)
		if err != nil {
			return Attributes{}, fmt.Errorf("resolve mappers: %w", err)
		}
		attrs.MapperIDs = ids
	}
	if names := parsed.Values(query.AttrCurator); len(names) > 0 {
		ids, err := s.records.FindUserIDsByName(ctx, names)
		if err != nil {
			return Attributes{}, fmt.Errorf("resolve curators: %w", err)
		}
		attrs.CuratorIDs = ids
	}
	return attrs, nil
}
