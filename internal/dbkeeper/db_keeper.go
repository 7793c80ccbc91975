package dbkeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drstein77/shopflow/internal/models"
	"github.com/drstein77/shopflow/internal/repository"
	"github.com/golang-migrate/migrate"
	"github.com/golang-migrate/migrate/database/postgres"
	_ "github.com/golang-migrate/migrate/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Log interface {
	Info(string, ...zap.Field)
	Error(string, ...zap.Field)
}

const productColumns = `id, name, description, category, price, sale_price, image, images,
	in_stock, rating, reviews, featured, features, tags, created_at`

type DBKeeper struct {
	pool *pgxpool.Pool
	log  Log
}

// NewDBKeeper connects to Postgres and brings the schema up to date with the
// migrations found in migrationsPath.
func NewDBKeeper(ctx context.Context, dsn func() string, migrationsPath func() string, log Log) (*DBKeeper, error) {
	addr := dsn()
	if addr == "" {
		return nil, errors.New("database dsn is empty")
	}

	config, err := pgxpool.ParseConfig(addr)
	if err != nil {
		log.Error("Unable to parse database DSN: ", zap.Error(err))
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		log.Error("Unable to connect to database: ", zap.Error(err))
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := migrateUp(config.ConnConfig, migrationsPath(), log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Connected!")

	return &DBKeeper{
		pool: pool,
		log:  log,
	}, nil
}

func migrateUp(connConfig *pgx.ConnConfig, path string, log Log) error {
	// Register the driver with the name pgx
	sqlDB := stdlib.OpenDB(*connConfig)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		log.Error("Error getting driver: ", zap.Error(err))
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		log.Error("Error creating migration instance: ", zap.Error(err))
		return fmt.Errorf("migration source %s: %w", path, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Error("Error while performing migration: ", zap.Error(err))
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// InsertProducts upserts products by id in one transaction and returns the
// statistics of the whole catalog.
func (kp *DBKeeper) InsertProducts(ctx context.Context, products []models.Product) (resp *models.ProcessResponse, err error) {
	if len(products) == 0 {
		return &models.ProcessResponse{}, nil
	}

	if kp.pool == nil {
		return nil, repository.NewFetchError("InsertProducts", errors.New("database connection pool is nil"))
	}

	tx, err := kp.pool.Begin(ctx)
	if err != nil {
		kp.log.Error("Failed to begin transaction", zap.Error(err))
		return nil, repository.NewFetchError("InsertProducts", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				kp.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
			}
		}
	}()

	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(`INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, p.Category)
		batch.Queue(`
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, description = EXCLUDED.description,
				category = EXCLUDED.category, price = EXCLUDED.price,
				sale_price = EXCLUDED.sale_price, image = EXCLUDED.image,
				images = EXCLUDED.images, in_stock = EXCLUDED.in_stock,
				rating = EXCLUDED.rating, reviews = EXCLUDED.reviews,
				featured = EXCLUDED.featured, features = EXCLUDED.features,
				tags = EXCLUDED.tags, created_at = EXCLUDED.created_at`,
			p.ID, p.Name, p.Description, p.Category, p.Price, nullDecimal(p.SalePrice), p.Image,
			nonNil(p.Images), p.InStock, p.Rating, p.Reviews, p.Featured,
			nonNil(p.Features), nonNil(p.Tags), p.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, execErr := br.Exec(); execErr != nil {
			br.Close()
			err = repository.NewFetchError("InsertProducts", fmt.Errorf("failed to execute batch query: %w", execErr))
			return nil, err
		}
	}
	if closeErr := br.Close(); closeErr != nil {
		kp.log.Error("Failed to close batch", zap.Error(closeErr))
	}

	statsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp = &models.ProcessResponse{}
	row := tx.QueryRow(statsCtx, `
		SELECT COUNT(*), COUNT(DISTINCT category), COALESCE(SUM(price), 0)
		FROM products
	`)
	if scanErr := row.Scan(&resp.TotalItems, &resp.TotalCategories, &resp.TotalPrice); scanErr != nil {
		err = repository.NewFetchError("InsertProducts", fmt.Errorf("failed to calculate stats: %w", scanErr))
		return nil, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = repository.NewFetchError("InsertProducts", fmt.Errorf("failed to commit transaction: %w", commitErr))
		return nil, err
	}

	kp.log.Info("Products successfully inserted, stats calculated.", zap.Int("received", len(products)))
	return resp, nil
}

// SeedIfEmpty inserts products when the catalog has none.
func (kp *DBKeeper) SeedIfEmpty(ctx context.Context, products []models.Product) error {
	var n int
	if err := kp.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return repository.NewFetchError("SeedIfEmpty", err)
	}
	if n > 0 {
		return nil
	}
	_, err := kp.InsertProducts(ctx, products)
	return err
}

func (kp *DBKeeper) ListProducts(ctx context.Context) ([]models.Product, error) {
	return kp.queryProducts(ctx, "ListProducts", `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (kp *DBKeeper) GetProduct(ctx context.Context, id int) (models.Product, error) {
	row := kp.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Product{}, &repository.NotFoundError{Kind: "product", ID: id}
	}
	if err != nil {
		kp.log.Error("Failed to get product", zap.Int("id", id), zap.Error(err))
		return models.Product{}, repository.NewFetchError("GetProduct", err)
	}
	return p, nil
}

// Search matches the query case-insensitively against name, description and
// category. A blank query returns the whole catalog.
func (kp *DBKeeper) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return kp.ListProducts(ctx)
	}
	return kp.queryProducts(ctx, "Search", `
		SELECT `+productColumns+` FROM products
		WHERE name ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
		ORDER BY id`, likePattern(query))
}

func (kp *DBKeeper) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := kp.pool.Query(ctx, `
		SELECT c.id, c.name, c.description, c.icon, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category = c.name
		GROUP BY c.id, c.name, c.description, c.icon
		ORDER BY c.name
	`)
	if err != nil {
		kp.log.Error("Failed to execute query", zap.Error(err))
		return nil, repository.NewFetchError("ListCategories", err)
	}

	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Category, error) {
		var c models.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, repository.NewFetchError("ListCategories", err)
	}
	return categories, nil
}

func (kp *DBKeeper) GetCategory(ctx context.Context, id int) (models.Category, error) {
	var c models.Category
	err := kp.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.description, c.icon, COUNT(p.id)
		FROM categories c
		LEFT JOIN products p ON p.category = c.name
		WHERE c.id = $1
		GROUP BY c.id, c.name, c.description, c.icon
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Category{}, &repository.NotFoundError{Kind: "category", ID: id}
	}
	if err != nil {
		return models.Category{}, repository.NewFetchError("GetCategory", err)
	}
	return c, nil
}

func (kp *DBKeeper) queryProducts(ctx context.Context, op, query string, args ...any) ([]models.Product, error) {
	if kp.pool == nil {
		return nil, repository.NewFetchError(op, errors.New("database connection pool is nil"))
	}

	rows, err := kp.pool.Query(ctx, query, args...)
	if err != nil {
		kp.log.Error("Failed to execute query", zap.String("op", op), zap.Error(err))
		return nil, repository.NewFetchError(op, err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		kp.log.Error("Failed to scan rows", zap.String("op", op), zap.Error(err))
		return nil, repository.NewFetchError(op, err)
	}
	return products, nil
}

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p    models.Product
		sale decimal.NullDecimal
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.Price, &sale, &p.Image, &p.Images,
		&p.InStock, &p.Rating, &p.Reviews, &p.Featured, &p.Features, &p.Tags, &p.CreatedAt,
	)
	if err != nil {
		return models.Product{}, err
	}
	if sale.Valid {
		p.SalePrice = &sale.Decimal
	}
	return p, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a literal substring into an ILIKE pattern.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func (kp *DBKeeper) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := kp.pool.Ping(ctx); err != nil {
		kp.log.Error("Database ping failed", zap.Error(err))
		return false
	}

	return true
}

func (kp *DBKeeper) Close() bool {
	if kp.pool != nil {
		kp.pool.Close()
		kp.log.Info("Database connection pool closed")
		return true
	}
	kp.log.Info("Attempted to close a nil database connection pool")
	return false
}
