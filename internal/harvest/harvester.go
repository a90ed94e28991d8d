// Package harvest scrapes the PartSelect catalog into the assistant's
// database: structured part rows, repair guides with embeddings, and blog
// articles with embeddings.
package harvest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"chandler/internal/library"
	"chandler/pkg/llm"
	"chandler/pkg/logging"
	"chandler/pkg/models"
)

const (
	renderRetries   = 3
	renderRetryWait = 5 * time.Second
	embedBatchSize  = 64
	blogIndexPages  = 18
)

// appliances maps the supported appliance names to their listing paths.
var appliances = []struct {
	Name       string
	PartsPath  string
	RepairPath string
}{
	{Name: "Dishwasher", PartsPath: "/Dishwasher-Parts.htm", RepairPath: "/Repair/Dishwasher/"},
	{Name: "Refrigerator", PartsPath: "/Refrigerator-Parts.htm", RepairPath: "/Repair/Refrigerator/"},
}

// Renderer fetches a fully rendered page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Harvester walks the catalog site and persists what it finds.
type Harvester struct {
	renderer    Renderer
	store       *library.Store
	embedder    llm.EmbeddingClient
	logger      logging.Logger
	baseURL     string
	brands      []string
	concurrency int
}

// Config wires a Harvester.
type Config struct {
	Renderer Renderer
	Store    *library.Store
	Embedder llm.EmbeddingClient
	Logger   logging.Logger
	BaseURL  string
	// Brands limits the parts crawl to brand pages whose URL contains one
	// of these names. Empty means all brands.
	Brands      []string
	Concurrency int
}

func New(cfg Config) *Harvester {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Harvester{
		renderer:    cfg.Renderer,
		store:       cfg.Store,
		embedder:    cfg.Embedder,
		logger:      cfg.Logger,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		brands:      cfg.Brands,
		concurrency: concurrency,
	}
}

// render fetches a page with retries, matching the flaky-render reality of
// a JS-heavy storefront.
func (h *Harvester) render(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= renderRetries; attempt++ {
		raw, err := h.renderer.Render(ctx, pageURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		h.logger.WithFields(logging.Fields{
			"url":     pageURL,
			"attempt": attempt,
			"error":   err,
		}).Warn("Render failed")
		select {
		case <-time.After(renderRetryWait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("render %s: %w", pageURL, lastErr)
}

// HarvestParts crawls the brand and related-category listings for both
// appliances and upserts every product page it reaches.
func (h *Harvester) HarvestParts(ctx context.Context) error {
	for _, appliance := range appliances {
		raw, err := h.render(ctx, h.baseURL+appliance.PartsPath)
		if err != nil {
			return err
		}
		brandLinks, err := ParseBrandLinks(raw, h.baseURL)
		if err != nil {
			return err
		}
		brandLinks = h.filterBrands(brandLinks)
		h.logger.WithFields(logging.Fields{
			"appliance": appliance.Name,
			"brands":    len(brandLinks),
		}).Info("Harvesting parts")

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(h.concurrency)
		for _, brandURL := range brandLinks {
			brandURL := brandURL
			group.Go(func() error {
				return h.harvestBrand(groupCtx, brandURL)
			})
		}
		if err := group.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// harvestBrand processes one brand page plus its related category pages.
func (h *Harvester) harvestBrand(ctx context.Context, brandURL string) error {
	raw, err := h.render(ctx, brandURL)
	if err != nil {
		h.logger.WithFields(logging.Fields{"url": brandURL, "error": err}).Warn("Skipping brand page")
		return nil
	}

	categories := []string{brandURL}
	related, err := ParseRelatedLinks(raw, h.baseURL)
	if err == nil {
		categories = append(categories, related...)
	}

	for i, categoryURL := range categories {
		// The brand page itself is already rendered.
		if i > 0 {
			raw, err = h.render(ctx, categoryURL)
			if err != nil {
				h.logger.WithFields(logging.Fields{"url": categoryURL, "error": err}).Warn("Skipping category page")
				continue
			}
		}
		links, err := ParseCategoryPage(raw, h.baseURL)
		if err != nil {
			h.logger.WithFields(logging.Fields{"url": categoryURL, "error": err}).Warn("Skipping category page")
			continue
		}
		if err := h.harvestPartPages(ctx, links); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harvester) harvestPartPages(ctx context.Context, links []PartLink) error {
	var parts []models.Part
	for _, link := range links {
		raw, err := h.render(ctx, link.URL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.WithFields(logging.Fields{"url": link.URL, "error": err}).Warn("Skipping part page")
			partsSkipped.Inc()
			continue
		}
		part, err := ParsePartPage(raw, link.Name, link.URL)
		if err != nil || part.PartID == "" {
			h.logger.WithFields(logging.Fields{"url": link.URL, "error": err}).Warn("Skipping unparseable part")
			partsSkipped.Inc()
			continue
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return nil
	}
	if err := h.store.UpsertParts(ctx, parts); err != nil {
		return fmt.Errorf("upsert parts: %w", err)
	}
	partsHarvested.Add(float64(len(parts)))
	return nil
}

// filterBrands keeps only brand URLs matching the configured brand names.
func (h *Harvester) filterBrands(links []string) []string {
	if len(h.brands) == 0 {
		return links
	}
	var kept []string
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, brand := range h.brands {
			if strings.Contains(lower, strings.ToLower(brand)) {
				kept = append(kept, link)
				break
			}
		}
	}
	return kept
}

// HarvestRepairs scrapes the symptom lists for both appliances, follows each
// symptom detail page, embeds the flattened passages, and upserts the lot.
func (h *Harvester) HarvestRepairs(ctx context.Context) error {
	var repairs []models.Repair
	for _, appliance := range appliances {
		raw, err := h.render(ctx, h.baseURL+appliance.RepairPath)
		if err != nil {
			return err
		}
		found, err := ParseSymptomList(raw, h.baseURL, appliance.Name)
		if err != nil {
			return err
		}
		h.logger.WithFields(logging.Fields{
			"appliance": appliance.Name,
			"symptoms":  len(found),
		}).Info("Harvesting repairs")

		for i := range found {
			if found[i].SymptomDetailURL == "" {
				continue
			}
			detail, err := h.render(ctx, found[i].SymptomDetailURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				h.logger.WithFields(logging.Fields{
					"url":   found[i].SymptomDetailURL,
					"error": err,
				}).Warn("Skipping symptom detail page")
				continue
			}
			if err := ParseRepairDetail(detail, &found[i]); err != nil {
				h.logger.WithFields(logging.Fields{
					"url":   found[i].SymptomDetailURL,
					"error": err,
				}).Warn("Skipping unparseable symptom detail")
			}
		}
		repairs = append(repairs, found...)
	}
	if len(repairs) == 0 {
		return nil
	}

	passages := make([]string, len(repairs))
	for i, repair := range repairs {
		passages[i] = repair.DocText()
	}
	embeddings, err := h.embedAll(ctx, passages)
	if err != nil {
		return err
	}
	if err := h.store.UpsertRepairs(ctx, repairs, embeddings); err != nil {
		return fmt.Errorf("upsert repairs: %w", err)
	}
	repairsHarvested.Add(float64(len(repairs)))
	return nil
}

// HarvestBlogs walks the paginated blog index, extracts each article body,
// embeds the passages, and upserts the posts.
func (h *Harvester) HarvestBlogs(ctx context.Context) error {
	indexURL := h.baseURL + "/content/blog"
	seen := make(map[string]struct{})
	var postURLs []string
	for page := 1; page <= blogIndexPages; page++ {
		raw, err := h.render(ctx, fmt.Sprintf("%s?start=%d", indexURL, page))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.WithFields(logging.Fields{"page": page, "error": err}).Warn("Skipping blog index page")
			continue
		}
		links, err := ParseBlogIndex(raw, h.baseURL)
		if err != nil {
			return err
		}
		for _, link := range links {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			postURLs = append(postURLs, link)
		}
	}
	h.logger.WithFields(logging.Fields{"posts": len(postURLs)}).Info("Harvesting blog posts")

	var (
		posts    []models.BlogPost
		passages []string
	)
	for _, postURL := range postURLs {
		raw, err := h.render(ctx, postURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			h.logger.WithFields(logging.Fields{"url": postURL, "error": err}).Warn("Skipping blog post")
			continue
		}
		post := models.BlogPost{
			Title: TitleFromURL(postURL),
			URL:   postURL,
			Body:  ExtractArticle(raw, postURL),
		}
		if post.Body == "" {
			h.logger.WithFields(logging.Fields{"url": postURL}).Warn("Skipping empty blog post")
			continue
		}
		posts = append(posts, post)
		passages = append(passages, post.DocText())
	}
	if len(posts) == 0 {
		return nil
	}

	embeddings, err := h.embedAll(ctx, passages)
	if err != nil {
		return err
	}
	if err := h.store.UpsertBlogs(ctx, posts, embeddings); err != nil {
		return fmt.Errorf("upsert blog posts: %w", err)
	}
	blogsHarvested.Add(float64(len(posts)))
	return nil
}

// embedAll embeds the passages in bounded batches so a large crawl does not
// exceed the embedding API's request limits.
func (h *Harvester) embedAll(ctx context.Context, passages []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(passages))
	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch, err := h.embedder.Embed(ctx, passages[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed passages: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}
