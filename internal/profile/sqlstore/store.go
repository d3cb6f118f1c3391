// Package sqlstore persists profiles in SQLite. It backs the dev API server and
// the client's offline mode.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"greenleaf/internal/profile"
)

const table = "user_profile"

// imageSubdir holds profile images inside the media directory.
const imageSubdir = "profile"

var columns = []string{
	"user_id", "first_name", "last_name", "birthdate", "gender",
	"email", "phone_number", "profile_image", "updated_at",
}

// Open connects to the SQLite database at path and runs migrations.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer; also keeps ":memory:" on a single shared database.
	db.SetMaxOpenConns(1)
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema if missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `create table if not exists user_profile (
		user_id       integer primary key,
		first_name    text not null default '',
		last_name     text not null default '',
		birthdate     text not null default '',
		gender        text not null default '',
		email         text not null,
		phone_number  text not null default '',
		profile_image text not null default '',
		updated_at    timestamp not null default current_timestamp
	)`)
	if err != nil {
		return fmt.Errorf("migrate %s: %w", table, err)
	}
	return nil
}

// Option configures a Store.
type Option func(*Store)

// WithImageRef sets how a stored image name (relative to the media dir, slash-separated)
// becomes the snapshot's ProfileImageRef. Defaults to the absolute file path.
func WithImageRef(fn func(rel string) string) Option {
	return func(s *Store) { s.imageRef = fn }
}

// WithClock overrides time.Now for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store reads and writes profiles for any user.
type Store struct {
	db       *sqlx.DB
	mediaDir string
	imageRef func(rel string) string
	now      func() time.Time
}

// NewStore creates a store. Saved images are copied under mediaDir.
func NewStore(db *sqlx.DB, mediaDir string, opts ...Option) *Store {
	s := &Store{db: db, mediaDir: mediaDir, now: time.Now}
	s.imageRef = func(rel string) string { return filepath.Join(s.mediaDir, filepath.FromSlash(rel)) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MediaDir is the root directory for stored images.
func (s *Store) MediaDir() string {
	return s.mediaDir
}

// Create inserts a profile if the user has none. Existing rows are left untouched.
func (s *Store) Create(ctx context.Context, snap profile.Snapshot) error {
	if snap.Email == "" {
		return fmt.Errorf("%w: email is required", profile.ErrInvalidField)
	}
	query, args, err := sq.
		Insert(table).
		Columns(columns...).
		Values(snap.ID, snap.FirstName, snap.LastName, snap.Birthdate, snap.Gender,
			snap.Email, snap.PhoneNumber, "", s.now().UTC()).
		Suffix("on conflict (user_id) do nothing").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Get returns the profile of userID.
func (s *Store) Get(ctx context.Context, userID int64) (profile.Snapshot, error) {
	row, err := s.getRow(ctx, userID)
	if err != nil {
		return profile.Snapshot{}, err
	}
	return s.toSnapshot(row), nil
}

// Put writes the editable fields of u. A non-empty u.ImagePath is copied into the
// media directory and replaces the previous image.
func (s *Store) Put(ctx context.Context, userID int64, u profile.Update) (profile.Snapshot, error) {
	current, err := s.getRow(ctx, userID)
	if err != nil {
		return profile.Snapshot{}, err
	}

	update := sq.
		Update(table).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("birthdate", u.Birthdate).
		Set("gender", u.Gender).
		Set("phone_number", u.PhoneNumber).
		Set("updated_at", s.now().UTC()).
		Where(sq.Eq{"user_id": userID})

	var newImage string
	if u.ImagePath != "" {
		newImage, err = s.copyImage(u.ImagePath)
		if err != nil {
			return profile.Snapshot{}, err
		}
		update = update.Set("profile_image", newImage)
	}

	query, args, err := update.ToSql()
	if err != nil {
		s.removeImage(newImage)
		return profile.Snapshot{}, fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.removeImage(newImage)
		return profile.Snapshot{}, fmt.Errorf("update profile: %w", err)
	}
	if newImage != "" && current.ProfileImage != newImage {
		s.removeImage(current.ProfileImage)
	}

	return s.Get(ctx, userID)
}

// ForUser returns a profile.Repository scoped to userID.
func (s *Store) ForUser(userID int64) profile.Repository {
	return userRepository{store: s, userID: userID}
}

type userRepository struct {
	store  *Store
	userID int64
}

func (r userRepository) Fetch(ctx context.Context) (profile.Snapshot, error) {
	return r.store.Get(ctx, r.userID)
}

func (r userRepository) Save(ctx context.Context, u profile.Update) (profile.Snapshot, error) {
	return r.store.Put(ctx, r.userID, u)
}

type sqlxProfile struct {
	UserID       int64     `db:"user_id"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Birthdate    string    `db:"birthdate"`
	Gender       string    `db:"gender"`
	Email        string    `db:"email"`
	PhoneNumber  string    `db:"phone_number"`
	ProfileImage string    `db:"profile_image"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *Store) getRow(ctx context.Context, userID int64) (sqlxProfile, error) {
	query, args, err := sq.
		Select(columns...).
		From(table).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return sqlxProfile{}, fmt.Errorf("build query: %w", err)
	}

	var row sqlxProfile
	err = s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return sqlxProfile{}, profile.ErrNotFound
	}
	if err != nil {
		return sqlxProfile{}, fmt.Errorf("get profile %d: %w", userID, err)
	}
	return row, nil
}

func (s *Store) toSnapshot(row sqlxProfile) profile.Snapshot {
	snap := profile.Snapshot{
		ID:          row.UserID,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Birthdate:   row.Birthdate,
		Gender:      row.Gender,
		Email:       row.Email,
		PhoneNumber: row.PhoneNumber,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ProfileImage != "" {
		snap.ProfileImageRef = s.imageRef(row.ProfileImage)
	}
	return snap
}

// copyImage copies src into the media dir under a fresh name and returns the
// slash-separated path relative to the media dir.
func (s *Store) copyImage(src string) (string, error) {
	if err := profile.ValidateImagePath(src); err != nil {
		return "", err
	}
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	dir := filepath.Join(s.mediaDir, imageSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(src))
	out, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return imageSubdir + "/" + name, nil
}

func (s *Store) removeImage(rel string) {
	if rel == "" {
		return
	}
	_ = os.Remove(filepath.Join(s.mediaDir, filepath.FromSlash(rel)))
}
