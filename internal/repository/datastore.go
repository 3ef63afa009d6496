package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/lodging-booking/internal/metrics"
)

// SQLDataStore implements DataStore on top of a MySQL *sql.DB.
type SQLDataStore struct {
	db       *sql.DB
	listings *ListingRepo
	bookings *BookingRepo
	reviews  *ReviewRepo
	users    *UserRepo
	tokens   *TokenRepo
}

// NewSQLDataStore wires every repository to the given database handle.
func NewSQLDataStore(db *sql.DB) *SQLDataStore {
	return &SQLDataStore{
		db:       db,
		listings: NewListingRepo(db),
		bookings: NewBookingRepo(db),
		reviews:  NewReviewRepo(db),
		users:    NewUserRepo(db),
		tokens:   NewTokenRepo(db),
	}
}

func (ds *SQLDataStore) Listings() ListingRepository { return ds.listings }
func (ds *SQLDataStore) Bookings() BookingRepository { return ds.bookings }
func (ds *SQLDataStore) Reviews() ReviewRepository   { return ds.reviews }
func (ds *SQLDataStore) Users() UserRepository       { return ds.users }
func (ds *SQLDataStore) Tokens() TokenRepository     { return ds.tokens }

// Ping checks database connectivity.
func (ds *SQLDataStore) Ping(ctx context.Context) error {
	return ds.db.PingContext(ctx)
}

// txRepositories binds the atomic repositories to one transaction.
type txRepositories struct {
	listings *ListingRepo
	bookings *BookingRepo
	reviews  *ReviewRepo
}

func (t txRepositories) Listings() ListingRepository { return t.listings }
func (t txRepositories) Bookings() BookingRepository { return t.bookings }
func (t txRepositories) Reviews() ReviewRepository   { return t.reviews }

// Atomic executes the callback within a database transaction.
// If the callback returns nil, the transaction is committed.
// If the callback returns an error or panics, the transaction is rolled back.
func (ds *SQLDataStore) Atomic(ctx context.Context, op string, fn AtomicCallback) (err error) {
	start := time.Now()
	defer func() { metrics.RecordTransactionDuration(op, time.Since(start)) }()

	tx, err := ds.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if !committed {
			_ = tx.Rollback()
		}
	}()

	repos := txRepositories{
		listings: &ListingRepo{db: tx, locking: true},
		bookings: &BookingRepo{db: tx, locking: true},
		reviews:  NewReviewRepo(tx),
	}
	if err = fn(repos); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

var _ DataStore = (*SQLDataStore)(nil)
