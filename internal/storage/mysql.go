package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"booking-intelligence/internal/config"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/models"

	_ "github.com/go-sql-driver/mysql"
	"github.com/goccy/go-json"
)

type MySQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		log.Error("DATABASE", "Failed to open MySQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping MySQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	if err := store.seedRoomTypes(); err != nil {
		return nil, fmt.Errorf("failed to seed room types: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

// DSN builds the go-sql-driver connection string.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
}

// Schema is the DDL applied on startup and by cmd/migrate.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS room_types (
        code VARCHAR(32) PRIMARY KEY,
        name VARCHAR(128) NOT NULL,
        base_price DECIMAL(10,2) NOT NULL,
        currency CHAR(3) NOT NULL DEFAULT 'usd',
        max_guests INT NOT NULL DEFAULT 2,
        active BOOLEAN NOT NULL DEFAULT TRUE,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS price_quotes (
        quote_id VARCHAR(36) PRIMARY KEY,
        user_id VARCHAR(64) NOT NULL,
        room_type VARCHAR(32) NOT NULL,
        ab_group VARCHAR(32) NOT NULL,
        base_price DECIMAL(10,2) NOT NULL,
        multiplier DECIMAL(6,4) NOT NULL,
        nightly_price DECIMAL(10,2) NOT NULL,
        total_price DECIMAL(12,2) NOT NULL,
        currency CHAR(3) NOT NULL,
        factors TEXT,
        check_in DATETIME NULL,
        nights INT NOT NULL,
        status VARCHAR(20) NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        expires_at DATETIME NULL,
        INDEX idx_ab_group (ab_group),
        INDEX idx_created_at (created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS observations (
        booking_id VARCHAR(64) PRIMARY KEY,
        user_id VARCHAR(64) NOT NULL,
        user_type VARCHAR(32) NOT NULL DEFAULT '',
        budget VARCHAR(32) NOT NULL DEFAULT '',
        season VARCHAR(32) NOT NULL DEFAULT '',
        stay_length VARCHAR(32) NOT NULL DEFAULT '',
        party_size VARCHAR(32) NOT NULL DEFAULT '',
        room_type VARCHAR(32) NOT NULL,
        booked BOOLEAN NOT NULL DEFAULT FALSE,
        rating TINYINT NOT NULL DEFAULT 0,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS impressions (
        impression_id VARCHAR(36) PRIMARY KEY,
        user_id VARCHAR(64) NOT NULL,
        ab_group VARCHAR(32) NOT NULL,
        source VARCHAR(16) NOT NULL,
        top_room_type VARCHAR(32) NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        INDEX idx_ab_group (ab_group),
        INDEX idx_created_at (created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

func (s *MySQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating tables if not exists")

	for _, query := range Schema {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "mysql", "Tables ready")
	return nil
}

func (s *MySQLStore) seedRoomTypes() error {
	for _, rt := range models.DefaultRoomTypes() {
		_, err := s.db.Exec(`INSERT IGNORE INTO room_types (code, name, base_price, currency, max_guests, active, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rt.Code, rt.Name, rt.BasePrice, rt.Currency, rt.MaxGuests, rt.Active, rt.UpdatedAt)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) ListRoomTypes() ([]*models.RoomType, error) {
	s.log.LogDatabase("SELECT", "mysql", "Listing room types")

	rows, err := s.db.Query(`SELECT code, name, base_price, currency, max_guests, active, updated_at
        FROM room_types ORDER BY code`)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list room types: %s", err.Error()))
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	defer rows.Close()

	var out []*models.RoomType
	for rows.Next() {
		rt := &models.RoomType{}
		if err := rows.Scan(&rt.Code, &rt.Name, &rt.BasePrice, &rt.Currency, &rt.MaxGuests, &rt.Active, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room type: %w", err)
		}
		out = append(out, rt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (s *MySQLStore) GetRoomType(code string) (*models.RoomType, error) {
	rt := &models.RoomType{}
	err := s.db.QueryRow(`SELECT code, name, base_price, currency, max_guests, active, updated_at
        FROM room_types WHERE code = ?`, code).
		Scan(&rt.Code, &rt.Name, &rt.BasePrice, &rt.Currency, &rt.MaxGuests, &rt.Active, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Room type %s not found", code))
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get room type: %w", err)
	}
	return rt, nil
}

func (s *MySQLStore) UpsertRoomType(rt *models.RoomType) error {
	s.log.LogDatabase("UPSERT", "mysql", fmt.Sprintf("Saving room type %s", rt.Code))

	_, err := s.db.Exec(`INSERT INTO room_types (code, name, base_price, currency, max_guests, active, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE name = VALUES(name), base_price = VALUES(base_price), currency = VALUES(currency),
            max_guests = VALUES(max_guests), active = VALUES(active), updated_at = VALUES(updated_at)`,
		rt.Code, rt.Name, rt.BasePrice, rt.Currency, rt.MaxGuests, rt.Active, rt.UpdatedAt)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save room type %s: %s", rt.Code, err.Error()))
		return fmt.Errorf("failed to save room type: %w", err)
	}
	return nil
}

func (s *MySQLStore) SaveQuote(quote *models.PriceQuote) error {
	s.log.LogDatabase("INSERT", "mysql", fmt.Sprintf("Saving quote %s", quote.QuoteID))

	factors, err := json.Marshal(quote.Factors)
	if err != nil {
		return fmt.Errorf("failed to encode quote factors: %w", err)
	}

	_, err = s.db.Exec(`INSERT INTO price_quotes (
            quote_id, user_id, room_type, ab_group, base_price, multiplier, nightly_price, total_price,
            currency, factors, check_in, nights, status, created_at, expires_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.QuoteID, quote.UserID, quote.RoomType, quote.Group, quote.BasePrice, quote.Multiplier,
		quote.NightlyPrice, quote.TotalPrice, quote.Currency, string(factors), quote.CheckIn, quote.Nights,
		quote.Status, quote.CreatedAt, quote.ExpiresAt,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save quote %s: %s", quote.QuoteID, err.Error()))
		return fmt.Errorf("failed to save quote: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Quote %s saved successfully", quote.QuoteID))
	return nil
}

func (s *MySQLStore) GetQuote(quoteID string) (*models.PriceQuote, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Fetching quote %s", quoteID))

	quote := &models.PriceQuote{}
	var factors sql.NullString
	err := s.db.QueryRow(`SELECT quote_id, user_id, room_type, ab_group, base_price, multiplier, nightly_price,
            total_price, currency, factors, check_in, nights, status, created_at, expires_at
        FROM price_quotes WHERE quote_id = ?`, quoteID).Scan(
		&quote.QuoteID, &quote.UserID, &quote.RoomType, &quote.Group, &quote.BasePrice, &quote.Multiplier,
		&quote.NightlyPrice, &quote.TotalPrice, &quote.Currency, &factors, &quote.CheckIn, &quote.Nights,
		&quote.Status, &quote.CreatedAt, &quote.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log.LogDatabase("NOT_FOUND", "mysql", fmt.Sprintf("Quote %s not found", quoteID))
			return nil, ErrNotFound
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get quote %s: %s", quoteID, err.Error()))
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if factors.Valid && factors.String != "" {
		if err := json.Unmarshal([]byte(factors.String), &quote.Factors); err != nil {
			return nil, fmt.Errorf("failed to decode quote factors: %w", err)
		}
	}
	return quote, nil
}

func (s *MySQLStore) UpdateQuoteStatus(quoteID string, status models.QuoteStatus) error {
	s.log.LogDatabase("UPDATE", "mysql", fmt.Sprintf("Quote %s -> %s", quoteID, status))

	res, err := s.db.Exec(`UPDATE price_quotes SET status = ? WHERE quote_id = ?`, status, quoteID)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update quote %s: %s", quoteID, err.Error()))
		return fmt.Errorf("failed to update quote: %w", err)
	}
	// MySQL reports zero affected rows when the status is unchanged, so
	// only a missing row is an error.
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := s.db.QueryRow(`SELECT 1 FROM price_quotes WHERE quote_id = ?`, quoteID).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to check quote: %w", err)
		}
	}
	return nil
}

func (s *MySQLStore) UpsertObservation(obs *models.Observation) error {
	s.log.LogDatabase("UPSERT", "mysql", fmt.Sprintf("Saving observation for booking %s", obs.BookingID))

	_, err := s.db.Exec(`INSERT INTO observations (
            booking_id, user_id, user_type, budget, season, stay_length, party_size, room_type, booked, rating, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON DUPLICATE KEY UPDATE user_id = VALUES(user_id), user_type = VALUES(user_type), budget = VALUES(budget),
            season = VALUES(season), stay_length = VALUES(stay_length), party_size = VALUES(party_size),
            room_type = VALUES(room_type), booked = VALUES(booked), rating = VALUES(rating)`,
		obs.BookingID, obs.UserID, obs.UserType, obs.Budget, obs.Season, obs.StayLength, obs.PartySize,
		obs.RoomType, obs.Booked, obs.Rating, obs.CreatedAt,
	)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save observation %s: %s", obs.BookingID, err.Error()))
		return fmt.Errorf("failed to save observation: %w", err)
	}
	return nil
}

const observationColumns = `booking_id, user_id, user_type, budget, season, stay_length, party_size, room_type, booked, rating, created_at`

func scanObservation(row interface{ Scan(...interface{}) error }) (*models.Observation, error) {
	obs := &models.Observation{}
	err := row.Scan(&obs.BookingID, &obs.UserID, &obs.UserType, &obs.Budget, &obs.Season, &obs.StayLength,
		&obs.PartySize, &obs.RoomType, &obs.Booked, &obs.Rating, &obs.CreatedAt)
	return obs, err
}

func (s *MySQLStore) GetObservation(bookingID string) (*models.Observation, error) {
	obs, err := scanObservation(s.db.QueryRow(`SELECT `+observationColumns+` FROM observations WHERE booking_id = ?`, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get observation: %w", err)
	}
	return obs, nil
}

func (s *MySQLStore) ListObservations() ([]*models.Observation, error) {
	s.log.LogDatabase("SELECT", "mysql", "Loading training observations")

	rows, err := s.db.Query(`SELECT ` + observationColumns + ` FROM observations ORDER BY booking_id`)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to list observations: %s", err.Error()))
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer rows.Close()

	var out []*models.Observation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		out = append(out, obs)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	s.log.LogDatabase("SUCCESS", "mysql", fmt.Sprintf("Loaded %d observations", len(out)))
	return out, nil
}

func (s *MySQLStore) SaveImpression(imp *models.Impression) error {
	_, err := s.db.Exec(`INSERT INTO impressions (impression_id, user_id, ab_group, source, top_room_type, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		imp.ImpressionID, imp.UserID, imp.Group, imp.Source, imp.TopRoomType, imp.CreatedAt)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save impression %s: %s", imp.ImpressionID, err.Error()))
		return fmt.Errorf("failed to save impression: %w", err)
	}
	return nil
}

func (s *MySQLStore) GroupStats(since time.Time) (map[models.ABGroup]*models.GroupReport, error) {
	s.log.LogDatabase("SELECT", "mysql", fmt.Sprintf("Aggregating A/B funnel since %s", since.Format(time.RFC3339)))

	reports := emptyReports()

	rows, err := s.db.Query(`SELECT ab_group, COUNT(*) FROM impressions WHERE created_at >= ? GROUP BY ab_group`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count impressions: %w", err)
	}
	for rows.Next() {
		var group models.ABGroup
		var n int
		if err := rows.Scan(&group, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan impressions: %w", err)
		}
		if r, ok := reports[group]; ok {
			r.Impressions = n
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("impression iteration error: %w", err)
	}

	rows, err = s.db.Query(`SELECT ab_group, COUNT(*), COALESCE(SUM(nightly_price), 0),
            COALESCE(SUM(status = ?), 0), COALESCE(SUM(CASE WHEN status = ? THEN total_price ELSE 0 END), 0)
        FROM price_quotes WHERE created_at >= ? GROUP BY ab_group`,
		models.QuoteConverted, models.QuoteConverted, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate quotes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var group models.ABGroup
		var quotes, conversions int
		var nightly, revenue float64
		if err := rows.Scan(&group, &quotes, &nightly, &conversions, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan quote stats: %w", err)
		}
		if r, ok := reports[group]; ok {
			r.Quotes = quotes
			r.AverageNightlyRate = nightly
			r.Conversions = conversions
			r.Revenue = revenue
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	finishReports(reports)
	return reports, nil
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}

func (s *MySQLStore) HealthCheck() error {
	return s.db.Ping()
}
