package carelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kennelworks/go-care-cache/carestatus"
)

type careLogRow struct {
	bun.BaseModel `bun:"table:care_logs,alias:cl"`

	ID        string    `bun:"id,pk"`
	DogID     string    `bun:"dog_id,notnull"`
	Category  string    `bun:"category,notnull"`
	TaskName  string    `bun:"task_name,notnull"`
	Timestamp time.Time `bun:"timestamp,notnull"`
	Notes     string    `bun:"notes"`
	CreatedBy string    `bun:"created_by"`
}

type dogRow struct {
	bun.BaseModel `bun:"table:dogs,alias:d"`

	ID         string `bun:"id,pk"`
	Name       string `bun:"name,notnull"`
	PhotoURL   string `bun:"photo_url"`
	Breed      string `bun:"breed"`
	Flags      string `bun:"flags"`
	Thresholds string `bun:"alert_thresholds"`
}

// BunStore implements Store over a bun database handle. Flags and
// alert thresholds are stored as JSON text columns so the schema stays
// portable across sqlite deployments.
type BunStore struct {
	db *bun.DB
}

// NewBunStore wraps an existing bun database handle.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// OpenSQLite opens a sqlite-backed BunStore at the given DSN.
func OpenSQLite(dsn string) (*BunStore, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return NewBunStore(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

// Init creates the backing tables when they do not exist yet.
func (s *BunStore) Init(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*dogRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewCreateTable().Model((*careLogRow)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Close releases the underlying database handle.
func (s *BunStore) Close() error {
	return s.db.Close()
}

// ListEntries returns care log entries matching the filter, newest
// first.
func (s *BunStore) ListEntries(ctx context.Context, f Filter) ([]carestatus.CareLogEntry, error) {
	var rows []careLogRow
	q := s.db.NewSelect().Model(&rows).Order("timestamp DESC")
	if f.DogID != "" {
		q = q.Where("dog_id = ?", f.DogID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", string(f.Category))
	}
	if !f.From.IsZero() {
		q = q.Where("timestamp >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("timestamp < ?", f.To)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	entries := make([]carestatus.CareLogEntry, len(rows))
	for i, r := range rows {
		entries[i] = carestatus.CareLogEntry{
			ID:        r.ID,
			DogID:     r.DogID,
			Category:  carestatus.CareCategory(r.Category),
			TaskName:  r.TaskName,
			Timestamp: r.Timestamp,
			Notes:     r.Notes,
			CreatedBy: r.CreatedBy,
		}
	}
	return entries, nil
}

// Insert stores one care log entry and returns it with its assigned id.
func (s *BunStore) Insert(ctx context.Context, entry carestatus.CareLogEntry) (carestatus.CareLogEntry, error) {
	if err := entry.Validate(); err != nil {
		return carestatus.CareLogEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	row := careLogRow{
		ID:        entry.ID,
		DogID:     entry.DogID,
		Category:  string(entry.Category),
		TaskName:  entry.TaskName,
		Timestamp: entry.Timestamp,
		Notes:     entry.Notes,
		CreatedBy: entry.CreatedBy,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return carestatus.CareLogEntry{}, err
	}
	return entry, nil
}

// Delete removes one care log entry by id.
func (s *BunStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*careLogRow)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// ListDogs returns the full dog roster.
func (s *BunStore) ListDogs(ctx context.Context) ([]carestatus.Dog, error) {
	var rows []dogRow
	if err := s.db.NewSelect().Model(&rows).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}

	dogs := make([]carestatus.Dog, len(rows))
	for i, r := range rows {
		dog := carestatus.Dog{
			ID:       r.ID,
			Name:     r.Name,
			PhotoURL: r.PhotoURL,
			Breed:    r.Breed,
		}
		if r.Flags != "" {
			if err := json.Unmarshal([]byte(r.Flags), &dog.Flags); err != nil {
				return nil, err
			}
		}
		if r.Thresholds != "" {
			if err := json.Unmarshal([]byte(r.Thresholds), &dog.AlertThresholds); err != nil {
				return nil, err
			}
		}
		dogs[i] = dog
	}
	return dogs, nil
}

// UpsertDog writes a roster record, replacing an existing row with the
// same id. Exposed for seeding and admin tooling.
func (s *BunStore) UpsertDog(ctx context.Context, dog carestatus.Dog) error {
	row := dogRow{
		ID:       dog.ID,
		Name:     dog.Name,
		PhotoURL: dog.PhotoURL,
		Breed:    dog.Breed,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if len(dog.Flags) > 0 {
		b, err := json.Marshal(dog.Flags)
		if err != nil {
			return err
		}
		row.Flags = string(b)
	}
	if len(dog.AlertThresholds) > 0 {
		b, err := json.Marshal(dog.AlertThresholds)
		if err != nil {
			return err
		}
		row.Thresholds = string(b)
	}
	_, err := s.db.NewInsert().Model(&row).On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("photo_url = EXCLUDED.photo_url").
		Set("breed = EXCLUDED.breed").
		Set("flags = EXCLUDED.flags").
		Set("alert_thresholds = EXCLUDED.alert_thresholds").
		Exec(ctx)
	return err
}
