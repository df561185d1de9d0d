package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/atinyakov/telecombase/internal/models"
)

// PostgresInventoryRepository stores vendors, models, locations and devices.
type PostgresInventoryRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresInventoryRepository creates a PostgresInventoryRepository on db.
func NewPostgresInventoryRepository(db *sql.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{DB: db}
}

// Ping checks the database connection.
func (r *PostgresInventoryRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

// ListVendors returns all vendors ordered by name.
func (r *PostgresInventoryRepository) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(country, '') FROM vendors ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListVendors: %w", err)
	}
	defer rows.Close()

	vendors := []models.Vendor{}
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.Country); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// CreateVendor inserts a vendor and returns its id.
func (r *PostgresInventoryRepository) CreateVendor(ctx context.Context, v models.Vendor) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO vendors (name, country) VALUES ($1, $2) RETURNING id
	`, v.Name, nullIfEmpty(v.Country)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateVendor: %w", mapError(err, ErrMissingReference))
	}
	return id, nil
}

// UpdateVendor overwrites the vendor with v.ID.
func (r *PostgresInventoryRepository) UpdateVendor(ctx context.Context, v models.Vendor) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE vendors SET name = $1, country = $2 WHERE id = $3
	`, v.Name, nullIfEmpty(v.Country), v.ID)
	if err != nil {
		return fmt.Errorf("UpdateVendor: %w", mapError(err, ErrMissingReference))
	}
	return affected(res)
}

// DeleteVendor removes a vendor. Returns ErrInUse while models reference it.
func (r *PostgresInventoryRepository) DeleteVendor(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "vendors", id)
}

// ListModels returns all models with their vendor names.
func (r *PostgresInventoryRepository) ListModels(ctx context.Context) ([]models.Model, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.vendor_id, v.name, m.name, COALESCE(m.device_type, '')
		FROM models m
		JOIN vendors v ON v.id = m.vendor_id
		ORDER BY v.name, m.name, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListModels: %w", err)
	}
	defer rows.Close()

	items := []models.Model{}
	for rows.Next() {
		var m models.Model
		if err := rows.Scan(&m.ID, &m.VendorID, &m.VendorName, &m.Name, &m.DeviceType); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

// CreateModel inserts a model. Returns ErrMissingReference for an unknown vendor.
func (r *PostgresInventoryRepository) CreateModel(ctx context.Context, m models.Model) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO models (vendor_id, name, device_type) VALUES ($1, $2, $3) RETURNING id
	`, m.VendorID, m.Name, nullIfEmpty(m.DeviceType)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateModel: %w", mapError(err, ErrMissingReference))
	}
	return id, nil
}

// UpdateModel overwrites the model with m.ID.
func (r *PostgresInventoryRepository) UpdateModel(ctx context.Context, m models.Model) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE models SET vendor_id = $1, name = $2, device_type = $3 WHERE id = $4
	`, m.VendorID, m.Name, nullIfEmpty(m.DeviceType), m.ID)
	if err != nil {
		return fmt.Errorf("UpdateModel: %w", mapError(err, ErrMissingReference))
	}
	return affected(res)
}

// DeleteModel removes a model. Returns ErrInUse while devices reference it.
func (r *PostgresInventoryRepository) DeleteModel(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "models", id)
}

// ListLocations returns all locations ordered by name.
func (r *PostgresInventoryRepository) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(note, '') FROM locations ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListLocations: %w", err)
	}
	defer rows.Close()

	items := []models.Location{}
	for rows.Next() {
		var l models.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Note); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// CreateLocation inserts a location and returns its id.
func (r *PostgresInventoryRepository) CreateLocation(ctx context.Context, l models.Location) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO locations (name, note) VALUES ($1, $2) RETURNING id
	`, l.Name, nullIfEmpty(l.Note)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateLocation: %w", mapError(err, ErrMissingReference))
	}
	return id, nil
}

// UpdateLocation overwrites the location with l.ID.
func (r *PostgresInventoryRepository) UpdateLocation(ctx context.Context, l models.Location) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE locations SET name = $1, note = $2 WHERE id = $3
	`, l.Name, nullIfEmpty(l.Note), l.ID)
	if err != nil {
		return fmt.Errorf("UpdateLocation: %w", mapError(err, ErrMissingReference))
	}
	return affected(res)
}

// DeleteLocation removes a location. Returns ErrInUse while devices reference it.
func (r *PostgresInventoryRepository) DeleteLocation(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "locations", id)
}

// ListDevices returns devices whose serial number, inventory number, status,
// model, vendor or location name contains query, case-insensitively. An
// empty query returns every device.
func (r *PostgresInventoryRepository) ListDevices(ctx context.Context, query string) ([]models.DeviceListItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT d.id, v.name, m.name, COALESCE(l.name, ''),
		       COALESCE(d.serial_number, ''), COALESCE(d.inventory_number, ''),
		       d.status, COALESCE(to_char(d.installed_at, 'YYYY-MM-DD'), '')
		FROM devices d
		JOIN models m ON m.id = d.model_id
		JOIN vendors v ON v.id = m.vendor_id
		LEFT JOIN locations l ON l.id = d.location_id
		WHERE $1 = ''
		   OR d.serial_number ILIKE $2
		   OR d.inventory_number ILIKE $2
		   OR d.status ILIKE $2
		   OR m.name ILIKE $2
		   OR v.name ILIKE $2
		   OR l.name ILIKE $2
		ORDER BY d.id
	`, query, containsPattern(query))
	if err != nil {
		return nil, fmt.Errorf("ListDevices: %w", err)
	}
	defer rows.Close()

	items := []models.DeviceListItem{}
	for rows.Next() {
		var d models.DeviceListItem
		if err := rows.Scan(&d.ID, &d.VendorName, &d.ModelName, &d.LocationName,
			&d.SerialNumber, &d.InventoryNumber, &d.Status, &d.InstalledAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// GetDevice returns the device with the given id or ErrNotFound.
func (r *PostgresInventoryRepository) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	d := &models.Device{}
	var location sql.NullInt64
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, model_id, location_id,
		       COALESCE(serial_number, ''), COALESCE(inventory_number, ''), status,
		       COALESCE(to_char(installed_at, 'YYYY-MM-DD'), ''), COALESCE(description, '')
		FROM devices WHERE id = $1
	`, id).Scan(&d.ID, &d.ModelID, &location, &d.SerialNumber, &d.InventoryNumber,
		&d.Status, &d.InstalledAt, &d.Description)
	if err != nil {
		return nil, mapError(err, err)
	}
	if location.Valid {
		d.LocationID = &location.Int64
	}
	return d, nil
}

// CreateDevice inserts a device. Returns ErrMissingReference for an unknown
// model or location.
func (r *PostgresInventoryRepository) CreateDevice(ctx context.Context, d models.Device) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO devices (model_id, location_id, serial_number, inventory_number, status, installed_at, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, deviceArgs(d)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("CreateDevice: %w", mapError(err, ErrMissingReference))
	}
	return id, nil
}

// UpdateDevice overwrites the device with d.ID.
func (r *PostgresInventoryRepository) UpdateDevice(ctx context.Context, d models.Device) error {
	args := append(deviceArgs(d), d.ID)
	res, err := r.DB.ExecContext(ctx, `
		UPDATE devices
		   SET model_id = $1, location_id = $2, serial_number = $3, inventory_number = $4,
		       status = $5, installed_at = $6, description = $7
		 WHERE id = $8
	`, args...)
	if err != nil {
		return fmt.Errorf("UpdateDevice: %w", mapError(err, ErrMissingReference))
	}
	return affected(res)
}

// DeleteDevice removes a device.
func (r *PostgresInventoryRepository) DeleteDevice(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "devices", id)
}

// deleteByID runs DELETE on table. table is always a constant from this file.
func (r *PostgresInventoryRepository) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, mapError(err, ErrInUse))
	}
	return affected(res)
}

func deviceArgs(d models.Device) []any {
	var location sql.NullInt64
	if d.LocationID != nil {
		location = sql.NullInt64{Int64: *d.LocationID, Valid: true}
	}
	return []any{
		d.ModelID,
		location,
		nullIfEmpty(d.SerialNumber),
		nullIfEmpty(d.InventoryNumber),
		d.Status,
		nullIfEmpty(d.InstalledAt),
		nullIfEmpty(d.Description),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching query as a literal substring.
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}
