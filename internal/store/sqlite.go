// Package store holds the persistence collaborators: the append-only CSV
// lead sink that is the durable hand-off target for every terminated call,
// and a SQLite-backed store of tenant and phone-number records that also
// mirrors leads for the admin surface.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/voxlead/voxlead/bridge"
)

// Store is the SQLite store of tenants, phone numbers, and mirrored leads.
type Store struct {
	db *sqlx.DB
}

// Tenant is one business the phone agent answers for.
type Tenant struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Persona   string    `db:"persona"`
	CreatedAt time.Time `db:"created_at"`
}

// PhoneNumber maps an inbound number to its tenant.
type PhoneNumber struct {
	Number    string    `db:"number"`
	TenantID  string    `db:"tenant_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Lead is one mirrored call result row.
type Lead struct {
	ID           string    `db:"id"`
	CallSID      string    `db:"call_sid"`
	Caller       string    `db:"caller"`
	Outcome      string    `db:"outcome"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	VehicleYear  string    `db:"vehicle_year"`
	VehicleMake  string    `db:"vehicle_make"`
	VehicleModel string    `db:"vehicle_model"`
	ServiceType  string    `db:"service_type"`
	PostalCode   string    `db:"postal_code"`
	RawLine      string    `db:"raw_line"`
	CreatedAt    time.Time `db:"created_at"`
}

// Open opens (creating if needed) the store at the given SQLite DSN.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute pragma: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
id TEXT PRIMARY KEY,
name TEXT NOT NULL,
persona TEXT NOT NULL DEFAULT '',
created_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS phone_numbers (
number TEXT PRIMARY KEY,
tenant_id TEXT NOT NULL,
created_at TIMESTAMP NOT NULL,
FOREIGN KEY (tenant_id) REFERENCES tenants(id) ON DELETE CASCADE
)`,
		`CREATE TABLE IF NOT EXISTS leads (
id TEXT PRIMARY KEY,
call_sid TEXT NOT NULL,
caller TEXT NOT NULL,
outcome TEXT NOT NULL,
name TEXT NOT NULL DEFAULT '',
phone TEXT NOT NULL DEFAULT '',
vehicle_year TEXT NOT NULL DEFAULT '',
vehicle_make TEXT NOT NULL DEFAULT '',
vehicle_model TEXT NOT NULL DEFAULT '',
service_type TEXT NOT NULL DEFAULT '',
postal_code TEXT NOT NULL DEFAULT '',
raw_line TEXT NOT NULL DEFAULT '',
created_at TIMESTAMP NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateTenant inserts a tenant and returns it.
func (s *Store) CreateTenant(ctx context.Context, name, persona string) (*Tenant, error) {
	t := &Tenant{
		ID:        uuid.New().String(),
		Name:      name,
		Persona:   persona,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, persona, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.Persona, t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return t, nil
}

// AddNumber maps an inbound number to a tenant.
func (s *Store) AddNumber(ctx context.Context, number, tenantID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO phone_numbers (number, tenant_id, created_at) VALUES (?, ?, ?)`,
		number, tenantID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert phone number: %w", err)
	}
	return nil
}

// PersonaByNumber returns the persona of the tenant owning the called
// number. An unknown number returns an empty persona, not an error: the
// agent still answers, just without tenant flavor.
func (s *Store) PersonaByNumber(ctx context.Context, number string) (string, error) {
	var persona string
	err := s.db.GetContext(ctx, &persona,
		`SELECT t.persona FROM tenants t
JOIN phone_numbers p ON p.tenant_id = t.id
WHERE p.number = ?`,
		number,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup persona: %w", err)
	}
	return persona, nil
}

// Append mirrors one call result into the leads table. Implements
// bridge.Sink.
func (s *Store) Append(ctx context.Context, res bridge.CallResult) error {
	rec := res.Record
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, call_sid, caller, outcome, name, phone,
vehicle_year, vehicle_make, vehicle_model, service_type, postal_code,
raw_line, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), res.CallSID, res.Caller, string(res.Outcome),
		rec.Name, rec.Phone, rec.VehicleYear, rec.VehicleMake,
		rec.VehicleModel, rec.ServiceType, rec.PostalCode, rec.RawLine,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// ListLeads returns the most recent leads, newest first.
func (s *Store) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	var leads []Lead
	err := s.db.SelectContext(ctx, &leads,
		`SELECT * FROM leads ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// ListTenants returns all tenants.
func (s *Store) ListTenants(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	err := s.db.SelectContext(ctx, &tenants,
		`SELECT * FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ bridge.Sink = (*Store)(nil)
