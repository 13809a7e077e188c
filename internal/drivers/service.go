// Package drivers provides read access to the driver roster.
package drivers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driveboard/driveboard/internal/db"
)

// ErrDriverNotFound is returned when a driver lookup finds no row.
var ErrDriverNotFound = errors.New("driver not found")

// Driver represents a roster entry.
type Driver struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	LicenseNumber string    `json:"license_number"`
	Vehicle       string    `json:"vehicle"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListDriversResponse wraps a list of drivers.
type ListDriversResponse struct {
	Items []Driver `json:"items"`
}

// Service provides driver reads over PostgreSQL.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new drivers service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "drivers")),
	}
}

const driverColumns = "id, full_name, phone, license_number, vehicle, status, created_at, updated_at"

// List returns all drivers ordered by name.
func (s *Service) List(ctx context.Context) ([]Driver, error) {
	if s.pool == nil {
		return nil, errors.New("driver store not configured")
	}
	rows, err := s.pool.Query(ctx, "SELECT "+driverColumns+" FROM drivers ORDER BY full_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Driver, 0)
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, driver)
	}
	return items, rows.Err()
}

// Get returns a driver by id.
func (s *Service) Get(ctx context.Context, id string) (Driver, error) {
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return Driver{}, err
	}
	if s.pool == nil {
		return Driver{}, errors.New("driver store not configured")
	}
	row := s.pool.QueryRow(ctx, "SELECT "+driverColumns+" FROM drivers WHERE id = $1", pgID)
	driver, err := scanDriver(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Driver{}, ErrDriverNotFound
		}
		return Driver{}, err
	}
	return driver, nil
}

func scanDriver(row pgx.Row) (Driver, error) {
	var (
		id        pgtype.UUID
		fullName  string
		phone     string
		license   string
		vehicle   string
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &fullName, &phone, &license, &vehicle, &status, &createdAt, &updatedAt); err != nil {
		return Driver{}, err
	}
	return Driver{
		ID:            db.UUIDToString(id),
		FullName:      fullName,
		Phone:         phone,
		LicenseNumber: license,
		Vehicle:       vehicle,
		Status:        status,
		CreatedAt:     db.TimeFromPg(createdAt),
		UpdatedAt:     db.TimeFromPg(updatedAt),
	}, nil
}
