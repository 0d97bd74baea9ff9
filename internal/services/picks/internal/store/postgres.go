package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alxvallejo/promptd/internal/services/picks/internal/model"
	"github.com/lib/pq"
)

const (
	errUniqueViolation     pq.ErrorCode = "23505"
	errForeignKeyViolation pq.ErrorCode = "23503"
)

// dbtx defines the interface for database and transactions
type dbtx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
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

// NewPostgresDB opens and pings a Postgres connection pool.
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

const pickColumns = `p.id, p.category, p.content, p.link_previews, p.week_of, p.user_id,
	COALESCE(pr.first_name, ''), p.created_at, p.updated_at`

const pickFrom = `FROM picks AS p LEFT JOIN profiles AS pr ON pr.id = p.user_id`

func scanPick(row scanner) (model.Pick, error) {
	var (
		p   model.Pick
		raw []byte
	)
	err := row.Scan(&p.ID, &p.Category, &p.Content, &raw, &p.WeekOf, &p.UserID, &p.UserFirstName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	p.LinkPreviews = []model.LinkPreview{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.LinkPreviews); err != nil {
			return p, fmt.Errorf("decode link previews of pick %s: %w", p.ID, err)
		}
	}

	return p, nil
}

func (s *PostgresStore) queryPicks(ctx context.Context, query string, args ...any) ([]model.Pick, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	picks := []model.Pick{}
	for rows.Next() {
		p, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		picks = append(picks, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate picks: %w", err)
	}

	return picks, nil
}

func (s *PostgresStore) CreatePick(ctx context.Context, r CreatePickRequest) (model.Pick, error) {
	previews := r.LinkPreviews
	if previews == nil {
		previews = []model.LinkPreview{}
	}

	raw, err := json.Marshal(previews)
	if err != nil {
		return model.Pick{}, fmt.Errorf("encode link previews: %w", err)
	}

	var id string
	err = s.WithTx(ctx, func(tx Store) error {
		q := tx.(*PostgresStore).db

		// serialize inserts per user and week so the count below holds
		if r.Limit > 0 {
			_, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text), hashtext($2::text))`, r.UserID, r.WeekOf)
			if err != nil {
				return fmt.Errorf("lock user week: %w", err)
			}
		}

		err := q.QueryRowContext(ctx,
			`INSERT INTO picks (category, content, link_previews, week_of, user_id)
			 SELECT $1::text, $2::text, $3::jsonb, $4::text, $5::text
			 WHERE $6::int <= 0 OR (SELECT count(*) FROM picks WHERE user_id = $5 AND week_of = $4) < $6::int
			 RETURNING id`,
			r.Category, r.Content, string(raw), r.WeekOf, r.UserID, r.Limit).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLimitReached
		}
		if err != nil {
			return fmt.Errorf("insert pick: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Pick{}, err
	}

	return s.GetPick(ctx, id)
}

func (s *PostgresStore) GetPick(ctx context.Context, id string) (model.Pick, error) {
	p, err := scanPick(s.db.QueryRowContext(ctx, `SELECT `+pickColumns+` `+pickFrom+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}

		return p, fmt.Errorf("get pick: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) GetPicksByWeek(ctx context.Context, week string) ([]model.Pick, error) {
	return s.queryPicks(ctx, `SELECT `+pickColumns+` `+pickFrom+` WHERE p.week_of = $1 ORDER BY p.created_at DESC`, week)
}

func (s *PostgresStore) GetPicksExcludingWeek(ctx context.Context, week string) ([]model.Pick, error) {
	return s.queryPicks(ctx, `SELECT `+pickColumns+` `+pickFrom+` WHERE p.week_of <> $1 ORDER BY p.created_at DESC`, week)
}

func (s *PostgresStore) GetUserPicks(ctx context.Context, userID string) ([]model.Pick, error) {
	return s.queryPicks(ctx, `SELECT `+pickColumns+` `+pickFrom+` WHERE p.user_id = $1 ORDER BY p.created_at DESC`, userID)
}

func (s *PostgresStore) CountUserPicks(ctx context.Context, userID, week string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM picks WHERE user_id = $1 AND week_of = $2", userID, week).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count picks: %w", err)
	}

	return n, nil
}

// DeletePick removes the pick and returns it so callers can clean up the
// objects it referenced.
func (s *PostgresStore) DeletePick(ctx context.Context, r DeletePickRequest) (model.Pick, error) {
	p, err := s.GetPick(ctx, r.ID)
	if err != nil {
		return p, err
	}
	if p.UserID != r.UserID {
		return model.Pick{}, ErrForbidden
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM picks WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	if err != nil {
		return model.Pick{}, fmt.Errorf("delete pick: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return model.Pick{}, ErrNotFound
	}

	return p, nil
}

const folderColumns = `id, name, user_id, created_at, updated_at`

func scanFolder(row scanner) (model.Folder, error) {
	var f model.Folder
	err := row.Scan(&f.ID, &f.Name, &f.UserID, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func (s *PostgresStore) CreateFolder(ctx context.Context, r CreateFolderRequest) (model.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx,
		`INSERT INTO folders (name, user_id) VALUES ($1, $2) RETURNING `+folderColumns, r.Name, r.UserID))
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return f, ErrExists
		}

		return f, fmt.Errorf("insert folder: %w", err)
	}

	return f, nil
}

func (s *PostgresStore) GetFolder(ctx context.Context, id string) (model.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, ErrNotFound
		}

		return f, fmt.Errorf("get folder: %w", err)
	}

	return f, nil
}

func (s *PostgresStore) GetFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}

	return folders, rows.Err()
}

func (s *PostgresStore) RenameFolder(ctx context.Context, r RenameFolderRequest) (model.Folder, error) {
	f, err := scanFolder(s.db.QueryRowContext(ctx,
		`UPDATE folders SET name = $3, updated_at = now() WHERE id = $1 AND user_id = $2 RETURNING `+folderColumns,
		r.ID, r.UserID, r.Name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, s.ownership(ctx, "folders", r.ID)
		}
		if isPqErr(err, errUniqueViolation) {
			return f, ErrExists
		}

		return f, fmt.Errorf("rename folder: %w", err)
	}

	return f, nil
}

// DeleteFolder moves the folder's prompts out of it, then removes it.
func (s *PostgresStore) DeleteFolder(ctx context.Context, r DeleteFolderRequest) error {
	return s.WithTx(ctx, func(tx Store) error {
		ps := tx.(*PostgresStore)

		_, err := ps.db.ExecContext(ctx,
			"UPDATE prompts SET folder_id = NULL, updated_at = now() WHERE folder_id = $1 AND user_id = $2", r.ID, r.UserID)
		if err != nil {
			return fmt.Errorf("detach prompts: %w", err)
		}

		res, err := ps.db.ExecContext(ctx, "DELETE FROM folders WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
		if err != nil {
			return fmt.Errorf("delete folder: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			return ps.ownership(ctx, "folders", r.ID)
		}

		return nil
	})
}

const promptColumns = `id, title, content, folder_id, user_id, created_at, updated_at`

func scanPrompt(row scanner) (model.Prompt, error) {
	var (
		p        model.Prompt
		folderID sql.NullString
	)
	err := row.Scan(&p.ID, &p.Title, &p.Content, &folderID, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if folderID.Valid {
		p.FolderID = &folderID.String
	}
	return p, err
}

func (s *PostgresStore) CreatePrompt(ctx context.Context, r CreatePromptRequest) (model.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRowContext(ctx,
		`INSERT INTO prompts (title, content, folder_id, user_id) VALUES ($1, $2, $3, $4) RETURNING `+promptColumns,
		r.Title, r.Content, r.FolderID, r.UserID))
	if err != nil {
		if isPqErr(err, errForeignKeyViolation) {
			return p, ErrNotFound
		}

		return p, fmt.Errorf("insert prompt: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) GetPrompts(ctx context.Context, userID string) ([]model.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+promptColumns+` FROM prompts WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query prompts: %w", err)
	}
	defer rows.Close()

	prompts := []model.Prompt{}
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}

	return prompts, rows.Err()
}

func (s *PostgresStore) UpdatePrompt(ctx context.Context, r UpdatePromptRequest) (model.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRowContext(ctx,
		`UPDATE prompts SET
		   title = COALESCE($3, title),
		   content = COALESCE($4, content),
		   folder_id = CASE WHEN $5 THEN $6::uuid ELSE folder_id END,
		   updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+promptColumns,
		r.ID, r.UserID, r.Title, r.Content, r.MoveFolder, r.FolderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, s.ownership(ctx, "prompts", r.ID)
		}
		if isPqErr(err, errForeignKeyViolation) {
			return p, ErrNotFound
		}

		return p, fmt.Errorf("update prompt: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) DeletePrompt(ctx context.Context, r DeletePromptRequest) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM prompts WHERE id = $1 AND user_id = $2", r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return s.ownership(ctx, "prompts", r.ID)
	}

	return nil
}

const profileColumns = `id, first_name, last_name, email, avatar_url, created_at, updated_at`

func scanProfile(row scanner) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, r UpsertProfileRequest) (model.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`INSERT INTO profiles (id, first_name, last_name, email, avatar_url) VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   first_name = EXCLUDED.first_name,
		   last_name = EXCLUDED.last_name,
		   email = EXCLUDED.email,
		   avatar_url = EXCLUDED.avatar_url,
		   updated_at = now()
		 RETURNING `+profileColumns,
		r.ID, r.FirstName, r.LastName, r.Email, r.AvatarURL))
	if err != nil {
		return p, fmt.Errorf("upsert profile: %w", err)
	}

	return p, nil
}

func (s *PostgresStore) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out[p.ID] = p
	}

	return out, rows.Err()
}

// WithTx executes the given function within a database transaction
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(s)
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

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// ownership explains why a user-scoped mutation matched nothing.
func (s *PostgresStore) ownership(ctx context.Context, table, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s ownership: %w", table, err)
	}

	if exists {
		return ErrForbidden
	}
	return ErrNotFound
}

func isPqErr(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return pqErr.Code == code
}
