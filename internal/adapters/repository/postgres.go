package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedra/atlas/pkg/logger"
)

// Default store configuration constants.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultQueryTimeout   = 5 * time.Second
)

const locationColumns = `
	id::text, name, description,
	ST_Y(coordinates)::text AS lat,
	ST_X(coordinates)::text AS lng,
	address, rating, total_ratings, photos, website, phone,
	hours, price_level, types, source, source_id,
	last_updated::text`

const eventColumns = `
	id::text, title, description, start_time::text, end_time::text,
	location_name, latitude, longitude, address, image_url, organizer,
	category, tags, source, external_id, url, cost_type, cost_amount,
	visibility, owner_id, created_at::text, updated_at::text`

// PostgresStore implements Store over a Postgres/PostGIS database.
type PostgresStore struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
	logger       logger.Logger
}

// NewPostgresStore connects a pool and verifies the database is
// reachable.
func NewPostgresStore(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	s := &PostgresStore{
		queryTimeout: defaultQueryTimeout,
		logger:       logger.Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	s.pool = pool
	return s, nil
}

// Ping checks database liveness.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// QueryNearby implements LocationStore.
func (s *PostgresStore) QueryNearby(ctx context.Context, lat, lng, radiusMeters float64, keyword string) ([]LocationRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		SELECT ` + locationColumns + `
		FROM locations
		WHERE ST_DWithin(
			coordinates::geography,
			ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography,
			$3)
		AND ($4 = ''
			OR name ILIKE '%' || $4 || '%'
			OR description ILIKE '%' || $4 || '%'
			OR $4 = ANY(types))
		ORDER BY ST_Distance(
			coordinates::geography,
			ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography)`

	rows, err := s.pool.Query(ctx, q, lat, lng, radiusMeters, keyword)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer rows.Close()

	var out []LocationRow
	for rows.Next() {
		var r LocationRow
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Description, &r.Lat, &r.Lng,
			&r.Address, &r.Rating, &r.TotalRatings, &r.Photos, &r.Website,
			&r.Phone, &r.Hours, &r.PriceLevel, &r.Types, &r.Source,
			&r.SourceID, &r.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return out, nil
}

// UpsertLocations implements LocationStore. Each row is its own
// statement inside one batch so a malformed row fails alone; failures
// are joined and reported after all rows have been attempted.
func (s *PostgresStore) UpsertLocations(ctx context.Context, locRows []LocationRow) error {
	if len(locRows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		INSERT INTO locations (
			name, description, coordinates, address, rating,
			total_ratings, photos, website, phone, hours,
			price_level, types, source, source_id, last_updated)
		VALUES ($1, $2, ST_GeomFromText($3, 4326), $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15::timestamptz)
		ON CONFLICT (source, source_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			coordinates = EXCLUDED.coordinates,
			address = EXCLUDED.address,
			rating = EXCLUDED.rating,
			total_ratings = EXCLUDED.total_ratings,
			photos = EXCLUDED.photos,
			website = EXCLUDED.website,
			phone = EXCLUDED.phone,
			hours = EXCLUDED.hours,
			price_level = EXCLUDED.price_level,
			types = EXCLUDED.types,
			last_updated = EXCLUDED.last_updated`

	batch := &pgx.Batch{}
	for _, r := range locRows {
		batch.Queue(q,
			r.Name, r.Description, r.Coordinates, r.Address, r.Rating,
			r.TotalRatings, r.Photos, r.Website, r.Phone, nullableJSON(r.Hours),
			r.PriceLevel, r.Types, r.Source, r.SourceID, r.LastUpdated,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Error(ctx, "closing upsert batch", logger.Error(err))
		}
	}()

	var failures []error
	for i := range locRows {
		if _, err := results.Exec(); err != nil {
			failures = append(failures, fmt.Errorf("%w: row %s/%s: %w",
				ErrUpsert, locRows[i].Source, locRows[i].SourceID, err))
		}
	}
	return errors.Join(failures...)
}

// QueryNearbyEvents implements EventStore. Rows older than window are
// not cache-valid and are excluded store-side.
func (s *PostgresStore) QueryNearbyEvents(ctx context.Context, lat, lng, radiusMeters float64, window time.Duration) ([]EventRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ST_DWithin(
			ST_SetSRID(ST_MakePoint(longitude, latitude), 4326)::geography,
			ST_SetSRID(ST_MakePoint($2, $1), 4326)::geography,
			$3)
		AND updated_at >= now() - make_interval(secs => $4)
		ORDER BY start_time ASC`

	rows, err := s.pool.Query(ctx, q, lat, lng, radiusMeters, window.Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

// UpsertEvents implements EventStore with the same per-row batch
// strategy as locations.
func (s *PostgresStore) UpsertEvents(ctx context.Context, evRows []EventRow) error {
	if len(evRows) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		INSERT INTO events (
			title, description, start_time, end_time, location_name,
			latitude, longitude, address, image_url, organizer,
			category, tags, source, external_id, url,
			cost_type, cost_amount, visibility, owner_id,
			created_at, updated_at)
		VALUES ($1, $2, $3::timestamptz, $4::timestamptz, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19,
			$20::timestamptz, $21::timestamptz)
		ON CONFLICT (source, external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			location_name = EXCLUDED.location_name,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			address = EXCLUDED.address,
			image_url = EXCLUDED.image_url,
			organizer = EXCLUDED.organizer,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			url = EXCLUDED.url,
			cost_type = EXCLUDED.cost_type,
			cost_amount = EXCLUDED.cost_amount,
			visibility = EXCLUDED.visibility,
			updated_at = EXCLUDED.updated_at`

	batch := &pgx.Batch{}
	for _, r := range evRows {
		batch.Queue(q,
			r.Title, r.Description, r.StartTime, r.EndTime, r.LocationName,
			r.Latitude, r.Longitude, r.Address, r.ImageURL, r.Organizer,
			r.Category, r.Tags, r.Source, r.ExternalID, r.URL,
			r.CostType, r.CostAmount, r.Visibility, r.OwnerID,
			r.CreatedAt, r.UpdatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Error(ctx, "closing upsert batch", logger.Error(err))
		}
	}()

	var failures []error
	for i := range evRows {
		if _, err := results.Exec(); err != nil {
			failures = append(failures, fmt.Errorf("%w: row %s/%v: %w",
				ErrUpsert, evRows[i].Source, evRows[i].ExternalID, err))
		}
	}
	return errors.Join(failures...)
}

// EventsByOwner implements EventStore.
func (s *PostgresStore) EventsByOwner(ctx context.Context, ownerID string) ([]EventRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1
		ORDER BY start_time ASC`

	rows, err := s.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

// InsertEvent implements EventStore. The row comes back as stored so
// the caller can return the store-assigned id and timestamps.
func (s *PostgresStore) InsertEvent(ctx context.Context, row EventRow) (EventRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	const q = `
		INSERT INTO events (
			title, description, start_time, end_time, location_name,
			latitude, longitude, address, image_url, organizer,
			category, tags, source, external_id, url,
			cost_type, cost_amount, visibility, owner_id,
			created_at, updated_at)
		VALUES ($1, $2, $3::timestamptz, $4::timestamptz, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19,
			$20::timestamptz, $21::timestamptz)
		RETURNING ` + eventColumns

	var out EventRow
	err := s.pool.QueryRow(ctx, q,
		row.Title, row.Description, row.StartTime, row.EndTime, row.LocationName,
		row.Latitude, row.Longitude, row.Address, row.ImageURL, row.Organizer,
		row.Category, row.Tags, row.Source, row.ExternalID, row.URL,
		row.CostType, row.CostAmount, row.Visibility, row.OwnerID,
		row.CreatedAt, row.UpdatedAt,
	).Scan(
		&out.ID, &out.Title, &out.Description, &out.StartTime, &out.EndTime,
		&out.LocationName, &out.Latitude, &out.Longitude, &out.Address,
		&out.ImageURL, &out.Organizer, &out.Category, &out.Tags, &out.Source,
		&out.ExternalID, &out.URL, &out.CostType, &out.CostAmount,
		&out.Visibility, &out.OwnerID, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return EventRow{}, fmt.Errorf("%w: %w", ErrInsert, err)
	}
	return out, nil
}

func scanEventRows(rows pgx.Rows) ([]EventRow, error) {
	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Description, &r.StartTime, &r.EndTime,
			&r.LocationName, &r.Latitude, &r.Longitude, &r.Address,
			&r.ImageURL, &r.Organizer, &r.Category, &r.Tags, &r.Source,
			&r.ExternalID, &r.URL, &r.CostType, &r.CostAmount,
			&r.Visibility, &r.OwnerID, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}
	return out, nil
}

// nullableJSON maps empty JSON payloads to NULL instead of an empty
// bytea that jsonb would reject.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
