package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gbbo-crawler/internal/crawl"
	"gbbo-crawler/internal/scrape"
	"gbbo-crawler/internal/store"
)

// TagFilter is one discovered filter value on the recipe listing.
type TagFilter struct {
	Kind  store.TagKind
	Param string
	Value string
}

// filterParams maps listing filter query params to tag kinds. Diets are
// not filterable on the listing; they come straight off the cards.
var filterParams = []struct {
	param string
	kind  store.TagKind
}{
	{"category", store.TagCategory},
	{"type", store.TagBakeType},
}

// DiscoverTagFilters fetches the recipe listing's first page and reads
// the category and bake-type filter values out of its filter panel.
func (p *Pipelines) DiscoverTagFilters(ctx context.Context) ([]TagFilter, error) {
	page, err := p.fetcher.Fetch(ctx, p.cfg.RecipesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch filter panel: %w", err)
	}
	if page.Missing || page.Doc == nil {
		return nil, fmt.Errorf("filter panel page missing at %s", p.cfg.RecipesURL)
	}

	var filters []TagFilter
	for _, fp := range filterParams {
		for _, value := range scrape.FilterValues(page.Doc, fp.param) {
			filters = append(filters, TagFilter{Kind: fp.kind, Param: fp.param, Value: value})
		}
	}
	return filters, nil
}

// RunAll executes the full harvest: bakers, recipes, then one tag run
// per discovered category and bake-type value. Stage failures are
// logged and do not stop later independent stages; the joined error of
// every failed stage is returned at the end.
func (p *Pipelines) RunAll(ctx context.Context) error {
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	logger.Info("harvest run starting")

	var errs []error

	res, err := p.RunBakers(ctx)
	logStage(logger, "bakers", res, err)
	if err != nil {
		errs = append(errs, fmt.Errorf("bakers: %w", err))
	}

	res, err = p.RunRecipes(ctx)
	logStage(logger, "recipes", res, err)
	if err != nil {
		errs = append(errs, fmt.Errorf("recipes: %w", err))
	}

	filters, err := p.DiscoverTagFilters(ctx)
	if err != nil {
		logger.Error("tag filter discovery failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("discover filters: %w", err))
	}
	for _, f := range filters {
		res, err = p.RunTag(ctx, f.Kind, f.Param, f.Value)
		logStage(logger, fmt.Sprintf("%s:%s", f.Kind, f.Value), res, err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", f.Kind, f.Value, err))
		}
	}

	if len(errs) > 0 {
		logger.Warn("harvest run finished with failed stages", zap.Int("failed", len(errs)))
		return errors.Join(errs...)
	}
	logger.Info("harvest run finished")
	return nil
}

func logStage(logger *zap.Logger, stage string, res crawl.Result, err error) {
	fields := []zap.Field{
		zap.String("stage", stage),
		zap.Stringer("state", res.State),
		zap.Int("pages", res.Pages),
		zap.Int("items", res.Items),
	}
	if err != nil {
		logger.Error("pipeline stage failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("pipeline stage finished", fields...)
}
