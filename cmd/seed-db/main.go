// Command seed-db loads the catalog seed file and provisions a demo
// seller with an API key, so a fresh environment is usable right away.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shelf-proposal-api/internal/domain/product"
	"github.com/xenking/shelf-proposal-api/internal/storage/postgres"
)

type productJSON struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Title       string          `json:"title"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
}

type sellerJSON struct {
	ID      string          `json:"id"`
	Profile json.RawMessage `json:"profile"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		sellerFile   string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&sellerFile, "seller-file", "db/seed/seller.json", "path to demo seller JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or SHELF_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SHELF_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHELF_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or SHELF_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SHELF_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, sellerFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, sellerFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	sellerID, err := seedSeller(ctx, pool, sellerFile)
	if err != nil {
		return errors.Wrap(err, "seed seller")
	}

	if err := seedAPIKey(ctx, pool, sellerID, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	repo := postgres.NewProductRepository(pool)

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if err := repo.Upsert(ctx, &product.Product{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Title:       p.Title,
			Brand:       p.Brand,
			Price:       p.Price,
			ImageURL:    p.ImageURL,
		}); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.SKU)
		}

		slog.Info("upserted product", slog.String("sku", p.SKU), slog.String("name", p.Name))
	}

	return nil
}

func seedSeller(ctx context.Context, pool *pgxpool.Pool, sellerFile string) (string, error) {
	slog.Info("reading seller file", slog.String("path", sellerFile))

	data, err := os.ReadFile(sellerFile)
	if err != nil {
		return "", errors.Wrap(err, "read seller file")
	}

	var s sellerJSON
	if err := json.Unmarshal(data, &s); err != nil {
		return "", errors.Wrap(err, "parse seller JSON")
	}
	if s.ID == "" {
		return "", errors.New("seller file has no id")
	}

	if err := postgres.UpsertSeller(ctx, pool, s.ID, s.Profile); err != nil {
		return "", err
	}

	slog.Info("upserted seller", slog.String("id", s.ID))
	return s.ID, nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, sellerID, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if err := postgres.UpsertAPIKey(ctx, pool, "default", keyHash, sellerID, "Default test key"); err != nil {
		return err
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("seller", sellerID))
	return nil
}
