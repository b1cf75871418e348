// Command catalog-ingest loads supplier price lists into the catalog.
// Supplier feeds are dirty: a SKU is trusted only when at least two
// independent lists carry it, and the lowest quoted price wins.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"math/bits"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/shelf-proposal-api/internal/domain/product"
	"github.com/xenking/shelf-proposal-api/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minSKULen     = 8
	maxSKULen     = 14
)

// listing is one supplier's quote for a SKU.
type listing struct {
	sku   string
	name  string
	brand string
	price decimal.Decimal
}

// fileResult holds the cross-confirmed listings found in one file.
type fileResult struct {
	mask     map[string]uint
	listings map[string]listing
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing pricelist*.gz supplier feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "pricelist*.gz"))
	if err != nil {
		return errors.Wrap(err, "glob price lists")
	}
	if len(files) < 2 {
		return errors.Errorf("need at least 2 price lists in %s, found %d", dataDir, len(files))
	}

	// Pass 1: one bloom filter of SKUs per file, built concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	// Pass 2: keep SKUs confirmed by at least one other file.
	slog.Info("pass 2: cross-confirming listings")

	trusted, err := crossConfirm(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "cross-confirm listings")
	}

	slog.Info("trusted listings found", slog.Int("count", len(trusted)))

	if len(trusted) == 0 {
		slog.Info("no listings to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := writeProducts(ctx, postgres.NewProductRepository(pool), trusted); err != nil {
		return errors.Wrap(err, "write products to database")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(buildFilterForFile(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFile(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			l, ok := parseListing(line)
			if !ok {
				return
			}
			filter.AddString(l.sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.Int("file", idx+1),
					slog.Uint64("listings", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "build filter for file %d", idx+1)
		}

		slog.Info("pass 1 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_listings", count),
		)

		filters[idx] = filter
		return nil
	}
}

// crossConfirm re-streams each file and keeps listings whose SKU appears in
// at least one OTHER file's bloom filter. Listings for the same SKU collapse
// to the lowest quoted price.
func crossConfirm(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]listing, error) {
	results := make([]fileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(confirmFile(ctx, i, f, filters, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge occurrence bitmasks and keep the cheapest quote per SKU.
	merged := make(map[string]uint)
	best := make(map[string]listing)
	for _, r := range results {
		for sku, mask := range r.mask {
			merged[sku] |= mask
			l := r.listings[sku]
			if cur, ok := best[sku]; !ok || l.price.LessThan(cur.price) {
				best[sku] = l
			}
		}
	}

	var trusted []listing
	for sku, mask := range merged {
		if bits.OnesCount(mask) >= 2 {
			trusted = append(trusted, best[sku])
		}
	}

	return trusted, nil
}

func confirmFile(
	ctx context.Context,
	idx int,
	path string,
	filters []*bloom.BloomFilter,
	results []fileResult,
) func() error {
	return func() error {
		mask := make(map[string]uint)
		listings := make(map[string]listing)
		fileBit := uint(1) << uint(idx)
		var count uint64

		if err := streamGzFile(ctx, path, func(line string) {
			l, ok := parseListing(line)
			if !ok {
				return
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.Int("file", idx+1),
					slog.Uint64("listings", count),
				)
			}

			for j, f := range filters {
				if j == idx {
					continue
				}
				if f.TestString(l.sku) {
					mask[l.sku] |= fileBit
					if cur, seen := listings[l.sku]; !seen || l.price.LessThan(cur.price) {
						listings[l.sku] = l
					}
					break
				}
			}
		}); err != nil {
			return errors.Wrapf(err, "scan file %d for confirmations", idx+1)
		}

		slog.Info("pass 2 complete",
			slog.Int("file", idx+1),
			slog.Uint64("total_listings", count),
			slog.Int("confirmed", len(mask)),
		)

		results[idx] = fileResult{mask: mask, listings: listings}
		return nil
	}
}

// parseListing parses one "sku;name;brand;price" feed line. Lines with a
// malformed SKU or a non-positive price are skipped.
func parseListing(line string) (listing, bool) {
	parts := strings.SplitN(line, ";", 4)
	if len(parts) != 4 {
		return listing{}, false
	}

	sku := strings.TrimSpace(parts[0])
	if len(sku) < minSKULen || len(sku) > maxSKULen {
		return listing{}, false
	}
	for i := range len(sku) {
		if sku[i] < '0' || sku[i] > '9' {
			return listing{}, false
		}
	}

	price, err := decimal.NewFromString(strings.TrimSpace(parts[3]))
	if err != nil || !price.IsPositive() {
		return listing{}, false
	}

	return listing{
		sku:   sku,
		name:  strings.TrimSpace(parts[1]),
		brand: strings.TrimSpace(parts[2]),
		price: price,
	}, true
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writeProducts upserts all trusted listings into the catalog.
func writeProducts(ctx context.Context, repo *postgres.ProductRepository, listings []listing) error {
	slog.Info("writing products to database", slog.Int("count", len(listings)))

	for i, l := range listings {
		if err := repo.Upsert(ctx, &product.Product{
			SKU:   l.sku,
			Name:  l.name,
			Brand: l.brand,
			Price: l.price,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", l.sku)
		}

		if (i+1)%100 == 0 || i+1 == len(listings) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(listings)))
		}
	}

	return nil
}
