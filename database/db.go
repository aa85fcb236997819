package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"

	"scalper/shared"
)

const (
	// SQL statements.
	createStateChangeTableSQL = "CREATE TABLE IF NOT EXISTS statechange (id TEXT PRIMARY KEY, market TEXT, previous INTEGER, current INTEGER, decision REAL, createdon INTEGER)"
	createMetadataSQL         = "CREATE TABLE IF NOT EXISTS metadata (id TEXT PRIMARY KEY, total INTEGER, longs INTEGER, shorts INTEGER, exits INTEGER, createdon INTEGER)"
	persistStateChangeSQL     = "INSERT INTO statechange(id, market, previous, current, decision, createdon) VALUES(?,?,?,?,?,?)"
	findMetadataSQL           = "SELECT * FROM metadata where id = ?"
	updateMetadataSQL         = "UPDATE metadata SET total = total + 1, longs = longs + ?, shorts = shorts + ?, exits = exits + ? WHERE id = ?"
	persistMetadataSQL        = "INSERT INTO metadata(id, total, longs, shorts, exits, createdon) VALUES(?,?,?,?,?,?)"
)

// StateStorer defines the requirements for storing state changes.
type StateStorer interface {
	// PersistStateChange stores the provided state change to the database.
	PersistStateChange(ctx context.Context, change *shared.StateChange) error
}

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Database represents the database connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the StateStorer interface.
var _ StateStorer = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	client.SetBasicAuth(cfg.User, cfg.Pass)

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createMetadataSQL},
		{SQL: createStateChangeTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	return nil
}

// generateMetadataID generates deterministic ids for metadata using the
// current month, week and market.
func generateMetadataID(currentTime time.Time, market string) string {
	month := currentTime.Month().String()
	week := currentTime.Day() / 7

	id := fmt.Sprintf("%s-Week-%d-%s", month, week, market)
	return id
}

// PersistStateChange stores the provided state change to the database.
func (db *Database) PersistStateChange(ctx context.Context, change *shared.StateChange) error {
	_, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{
			SQL: persistStateChangeSQL,
			PositionalParams: []any{change.ID, change.Market, int(change.Previous),
				int(change.Current), change.Decision, change.CreatedOn.Unix()},
		},
	}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return err
	}

	var longs, shorts, exits int
	switch {
	case change.Current == shared.StateLong:
		longs++
	case change.Current == shared.StateShort:
		shorts++
	case change.Current == shared.StateNeutral && change.Previous.Directional():
		exits++
	default:
		db.cfg.Logger.Error().Msgf("unexpected state change for metadata calculations: %s",
			spew.Sdump(change))
	}

	id := generateMetadataID(change.CreatedOn, change.Market)
	resp, err := db.client.QuerySingle(ctx, findMetadataSQL, id)
	if err != nil {
		return err
	}

	exists := len(resp.GetQueryResultsAssoc()) > 0
	switch {
	case exists:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              updateMetadataSQL,
				PositionalParams: []any{longs, shorts, exits, id},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("updating metadata %s: %d -> %s", id, idx, errStr)
		}
	default:
		resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
			{
				SQL:              persistMetadataSQL,
				PositionalParams: []any{id, 1, longs, shorts, exits, change.CreatedOn.Unix()},
			},
		}, &rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
		if err != nil {
			return err
		}
		has, idx, errStr := resp.HasError()
		if has {
			return fmt.Errorf("persisting metadata %s: %d -> %s", id, idx, errStr)
		}
	}

	return nil
}
