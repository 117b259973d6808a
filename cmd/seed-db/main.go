// Command seed-db loads the product catalog from a JSON file and provisions
// a login session, so a fresh database is immediately usable by the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/soni-790/storefront-api/internal/api"
	"github.com/soni-790/storefront-api/internal/domain/product"
	"github.com/soni-790/storefront-api/internal/storage/postgres"
)

const upsertProductSQL = `INSERT INTO products (id, sku, title, description, category, brand,
		price, discount_percentage, rating, stock, availability_status, thumbnail)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		sku = EXCLUDED.sku,
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		brand = EXCLUDED.brand,
		price = EXCLUDED.price,
		discount_percentage = EXCLUDED.discount_percentage,
		rating = EXCLUDED.rating,
		stock = EXCLUDED.stock,
		availability_status = EXCLUDED.availability_status,
		thumbnail = EXCLUDED.thumbnail,
		updated_at = now()`

const upsertSessionSQL = `INSERT INTO sessions (token_hash, user_id, role)
	VALUES ($1, $2, $3)
	ON CONFLICT (token_hash) DO UPDATE SET user_id = EXCLUDED.user_id, role = EXCLUDED.role`

type productJSON struct {
	ID                 string          `json:"id"`
	SKU                string          `json:"sku"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Brand              string          `json:"brand"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	Rating             decimal.Decimal `json:"rating"`
	Stock              int             `json:"stock"`
	Thumbnail          string          `json:"thumbnail"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		token        string
		tokenPepper  string
		userID       string
		role         string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&token, "token", "", "session token to seed (or SHOP_SEED_TOKEN env)")
	flag.StringVar(&tokenPepper, "token-pepper", "", "HMAC pepper for token hashing (or SHOP_TOKEN_PEPPER env)")
	flag.StringVar(&userID, "user-id", "seed-user", "user id for the seeded session")
	flag.StringVar(&role, "role", "user", "role for the seeded session (user or admin)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if token == "" {
		token = os.Getenv("SHOP_SEED_TOKEN")
	}
	if tokenPepper == "" {
		tokenPepper = os.Getenv("SHOP_TOKEN_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, token, tokenPepper, userID, role); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, token, pepper, userID, role string) error {
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

	if token != "" {
		if err := seedSession(ctx, pool, token, pepper, userID, role); err != nil {
			return errors.Wrap(err, "seed session")
		}
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

	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, p := range products {
		g.Go(func() error {
			availability := string(product.AvailabilityForStock(p.Stock))
			if _, err := pool.Exec(ctx, upsertProductSQL,
				p.ID, p.SKU, p.Title, p.Description, p.Category, p.Brand,
				p.Price, p.DiscountPercentage, p.Rating, p.Stock, availability, p.Thumbnail,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
			return nil
		})
	}
	return g.Wait()
}

func seedSession(ctx context.Context, pool *pgxpool.Pool, token, pepper, userID, role string) error {
	slog.Info("seeding session", slog.String("user_id", userID), slog.String("role", role))

	hash := api.HashToken(token, []byte(pepper))
	if _, err := pool.Exec(ctx, upsertSessionSQL, hash, userID, role); err != nil {
		return errors.Wrap(err, "upsert session")
	}
	return nil
}
