package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

type PostgresStore struct {
	db dbtx
}

func NewPostgresDB(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = "user_id, email, name, picture, provider, created_at, updated_at"

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Picture,
		&u.Provider,
		&u.CreatedAt,
		&u.UpdatedAt)
	return u, err
}

func (s *PostgresStore) CreateUser(ctx context.Context, r CreateUserRequest) (User, error) {
	provider := r.Provider
	if provider == "" {
		provider = "google"
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO users (user_id, email, name, picture, provider)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		uuid.NewString(), strings.ToLower(r.Email), r.Name, r.Picture, provider)

	u, err := scanUser(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return User{}, ErrAlreadyExists
		}

		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id=$1", id)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}

		return User{}, fmt.Errorf("scan user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=$1", strings.ToLower(email))

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}

		return User{}, fmt.Errorf("scan user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) UserExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE user_id=$1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user existence: %w", err)
	}

	return exists, nil
}

func (s *PostgresStore) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)", strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user existence: %w", err)
	}

	return exists, nil
}

// UpdateUser patches name and picture; nil fields keep the stored value.
func (s *PostgresStore) UpdateUser(ctx context.Context, r UpdateUserRequest) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     picture = COALESCE($3, picture),
		     updated_at = now()
		 WHERE user_id=$1
		 RETURNING `+userColumns,
		r.ID, r.Name, r.Picture)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}

		return User{}, fmt.Errorf("update user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE user_id=$1", id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return n > 0, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

const voiceColumns = "voice_id, user_id, filename, file_path, embedding_path, duration, sample_rate, name, description, created_at, updated_at"

func scanVoice(row interface{ Scan(dest ...any) error }) (Voice, error) {
	var v Voice
	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.Filename,
		&v.FilePath,
		&v.EmbeddingPath,
		&v.Duration,
		&v.SampleRate,
		&v.Name,
		&v.Description,
		&v.CreatedAt,
		&v.UpdatedAt)
	return v, err
}

func (s *PostgresStore) CreateVoice(ctx context.Context, r CreateVoiceRequest) (Voice, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO sample_voices (voice_id, user_id, filename, file_path, embedding_path, duration, sample_rate, name, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+voiceColumns,
		uuid.NewString(), r.UserID, r.Filename, r.FilePath, r.EmbeddingPath, r.Duration, r.SampleRate, r.Name, r.Description)

	v, err := scanVoice(row)
	if err != nil {
		return Voice{}, fmt.Errorf("insert voice: %w", err)
	}

	return v, nil
}

func (s *PostgresStore) GetVoice(ctx context.Context, id string) (Voice, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+voiceColumns+" FROM sample_voices WHERE voice_id=$1", id)

	v, err := scanVoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Voice{}, ErrNotFound
		}

		return Voice{}, fmt.Errorf("scan voice: %w", err)
	}

	return v, nil
}

func (s *PostgresStore) VoiceExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM sample_voices WHERE voice_id=$1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query voice existence: %w", err)
	}

	return exists, nil
}

func (s *PostgresStore) DeleteVoice(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sample_voices WHERE voice_id=$1", id)
	if err != nil {
		return false, fmt.Errorf("delete voice: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return n > 0, nil
}

func (s *PostgresStore) ListVoices(ctx context.Context) ([]Voice, error) {
	return s.queryVoices(ctx,
		"SELECT "+voiceColumns+" FROM sample_voices ORDER BY created_at")
}

func (s *PostgresStore) ListVoicesByUser(ctx context.Context, userID string) ([]Voice, error) {
	return s.queryVoices(ctx,
		"SELECT "+voiceColumns+" FROM sample_voices WHERE user_id=$1 ORDER BY created_at", userID)
}

func (s *PostgresStore) queryVoices(ctx context.Context, query string, args ...any) ([]Voice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query voices: %w", err)
	}
	defer rows.Close()

	var voices []Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voice: %w", err)
		}
		voices = append(voices, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate voices: %w", err)
	}

	return voices, nil
}

// WithTx runs fn within a transaction, rolling back on error.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return errors.New("already in transaction")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	sx := &PostgresStore{db: tx}
	if err = fn(sx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %v after: %w", rbErr, err)
		}

		return fmt.Errorf("transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
