// Package seed creates the sample shop database that querydesk answers
// questions about.
package seed

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	log "github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const timeLayout = "2006-01-02T15:04:05"

// Options tune the generated sample data. The zero value uses the wall clock
// and a time-seeded random source.
type Options struct {
	Now  func() time.Time
	Rand *rand.Rand
	// Orders is the number of sample orders, 5 when zero.
	Orders int
}

// Open opens (creating if needed) a writable SQLite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate creates the shop schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(log.StandardLogger())

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Seed migrates db and fills it with sample data. A database that already has
// customers is left untouched.
func Seed(ctx context.Context, db *sql.DB, opts Options) error {
	if err := Migrate(ctx, db); err != nil {
		return err
	}

	var customers int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&customers); err != nil {
		return fmt.Errorf("failed to count customers: %w", err)
	}
	if customers > 0 {
		log.WithField("customers", customers).Info("Database already seeded, skipping")
		return nil
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Orders <= 0 {
		opts.Orders = 5
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	s := &seeder{tx: tx, now: opts.Now(), rnd: opts.Rand}
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"categories", s.categories},
		{"suppliers", s.suppliers},
		{"products", s.products},
		{"customers", s.customers},
		{"orders", func(ctx context.Context) error { return s.orders(ctx, opts.Orders) }},
		{"inventory", s.inventory},
		{"reviews", s.reviews},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("failed to seed %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sample data: %w", err)
	}

	log.WithField("orders", opts.Orders).Info("Sample database seeded")
	return nil
}

type seeder struct {
	tx  *sql.Tx
	now time.Time
	rnd *rand.Rand
}

func (s *seeder) ago(d time.Duration) string {
	return s.now.Add(-d).Format(timeLayout)
}

const day = 24 * time.Hour

func (s *seeder) exec(ctx context.Context, query string, rows ...[]interface{}) error {
	stmt, err := s.tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, args := range rows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) categories(ctx context.Context) error {
	return s.exec(ctx, "INSERT INTO categories (name, parent_id) VALUES (?, ?)",
		[]interface{}{"Electronics", nil},
		[]interface{}{"Computers", 1},
		[]interface{}{"Smartphones", 1},
		[]interface{}{"Furniture", nil},
		[]interface{}{"Chairs", 4},
		[]interface{}{"Tables", 4},
		[]interface{}{"Clothing", nil},
	)
}

func (s *seeder) suppliers(ctx context.Context) error {
	return s.exec(ctx, "INSERT INTO suppliers (company_name, contact_name, email, phone, address) VALUES (?, ?, ?, ?, ?)",
		[]interface{}{"Tech Corp", "John Techman", "john@techcorp.com", "555-1234", "123 Tech Street"},
		[]interface{}{"Furniture World", "Sarah Furnish", "sarah@furnworld.com", "555-5678", "456 Comfort Ave"},
		[]interface{}{"Fashion Ltd", "Emma Styles", "emma@fashionltd.com", "555-9012", "789 Trend Blvd"},
	)
}

func (s *seeder) products(ctx context.Context) error {
	return s.exec(ctx, `INSERT INTO products
		(name, description, sku, price, category_id, supplier_id, stock_quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		[]interface{}{"Premium Laptop", "High-end business laptop", "LT-1001", 1499.99, 2, 1, 50, s.ago(30 * day)},
		[]interface{}{"Gaming Smartphone", "Flagship gaming phone", "PH-2001", 899.99, 3, 1, 100, s.ago(20 * day)},
		[]interface{}{"Ergonomic Chair", "Office ergonomic chair", "CH-3001", 299.99, 5, 2, 200, s.ago(10 * day)},
		[]interface{}{"Designer T-Shirt", "Cotton premium t-shirt", "TS-4001", 49.99, 7, 3, 500, s.ago(5 * day)},
	)
}

func (s *seeder) customers(ctx context.Context) error {
	return s.exec(ctx, `INSERT INTO customers
		(first_name, last_name, email, phone, created_at, last_login, address, city, country, postal_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		[]interface{}{"John", "Doe", "john@example.com", "555-1111", s.ago(100 * day), s.ago(2 * time.Hour), "123 Main St", "New York", "USA", "10001"},
		[]interface{}{"Jane", "Smith", "jane@example.com", "555-2222", s.ago(80 * day), s.ago(5 * time.Hour), "456 Oak Ave", "London", "UK", "SW1A 1AA"},
		[]interface{}{"Bob", "Wilson", "bob@example.com", "555-3333", s.ago(60 * day), s.ago(day), "789 Pine Rd", "Sydney", "Australia", "2000"},
	)
}

var (
	orderStatuses   = []string{"pending", "processing", "shipped"}
	paymentStatuses = []string{"paid", "unpaid"}
	paymentMethods  = []string{"credit_card", "paypal", "bank_transfer"}
)

// orders inserts n orders with one to three detail lines each, sets every
// order total from its lines and records a payment for paid orders.
func (s *seeder) orders(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		orderDate := s.now.Add(-time.Duration(1+s.rnd.Intn(10)) * day)
		paymentStatus := paymentStatuses[s.rnd.Intn(len(paymentStatuses))]

		res, err := s.tx.ExecContext(ctx,
			"INSERT INTO orders (customer_id, order_date, total_amount, status, payment_status) VALUES (?, ?, 0, ?, ?)",
			1+s.rnd.Intn(3), orderDate.Format(timeLayout), orderStatuses[s.rnd.Intn(len(orderStatuses))], paymentStatus)
		if err != nil {
			return err
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		for line := 1 + s.rnd.Intn(3); line > 0; line-- {
			_, err := s.tx.ExecContext(ctx, `INSERT INTO order_details (order_id, product_id, quantity, unit_price)
				SELECT ?, id, ?, price FROM products WHERE id = ?`,
				orderID, 1+s.rnd.Intn(5), 1+s.rnd.Intn(4))
			if err != nil {
				return err
			}
		}

		_, err = s.tx.ExecContext(ctx, `UPDATE orders SET total_amount =
			(SELECT SUM(quantity * unit_price) FROM order_details WHERE order_id = ?)
			WHERE id = ?`, orderID, orderID)
		if err != nil {
			return err
		}

		if paymentStatus == "paid" {
			_, err = s.tx.ExecContext(ctx, `INSERT INTO payments (order_id, amount, payment_method, transaction_id, payment_date)
				SELECT id, total_amount, ?, ?, ? FROM orders WHERE id = ?`,
				paymentMethods[s.rnd.Intn(len(paymentMethods))], uuid.NewString(), orderDate.Add(time.Hour).Format(timeLayout), orderID)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *seeder) inventory(ctx context.Context) error {
	return s.exec(ctx, "INSERT INTO inventory (product_id, quantity, location, last_restocked) VALUES (?, ?, ?, ?)",
		[]interface{}{1, 50, "Warehouse A", s.ago(7 * day)},
		[]interface{}{2, 100, "Warehouse B", s.ago(14 * day)},
		[]interface{}{3, 200, "Warehouse C", s.ago(21 * day)},
		[]interface{}{4, 500, "Warehouse A", s.ago(3 * day)},
	)
}

func (s *seeder) reviews(ctx context.Context) error {
	return s.exec(ctx, "INSERT INTO reviews (product_id, customer_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		[]interface{}{1, 1, 5, "Excellent performance!", s.ago(5 * day)},
		[]interface{}{2, 2, 4, "Great for gaming", s.ago(3 * day)},
		[]interface{}{3, 3, 5, "Very comfortable", s.ago(2 * day)},
		[]interface{}{4, 1, 4, "Good quality fabric", s.ago(day)},
	)
}
