package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrVideoNotFound = errors.New("video not found")
	// ErrAmbiguousRemoteID indicates more than one video row matched a remote
	// asset id. This is a data-integrity violation, not a retryable condition.
	ErrAmbiguousRemoteID = errors.New("remote asset id matches more than one video")
	ErrDuplicateRemoteID = errors.New("duplicate remote asset id")
)

// VideoRepository is the sole owner and mutator of video records.
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new video repository.
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

const videoColumns = `id, title, remote_asset_id, processing_status, is_published,
	duration_seconds, width, height, playback_url, thumbnail_url, preview_url,
	size_bytes, error_code, error_message, retry_count, last_retry_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*VideoRecord, error) {
	var v VideoRecord
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.RemoteAssetID,
		&v.ProcessingStatus,
		&v.IsPublished,
		&v.DurationSeconds,
		&v.Width,
		&v.Height,
		&v.PlaybackURL,
		&v.ThumbnailURL,
		&v.PreviewURL,
		&v.SizeBytes,
		&v.ErrorCode,
		&v.ErrorMessage,
		&v.RetryCount,
		&v.LastRetryAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateVideoParams contains parameters for creating a video record.
type CreateVideoParams struct {
	ID            string
	Title         string
	RemoteAssetID *string
	Status        ProcessingStatus
}

// Create inserts a new video record.
func (r *VideoRepository) Create(ctx context.Context, params CreateVideoParams) (*VideoRecord, error) {
	status := params.Status
	if status == "" {
		status = StatusQueued
	}

	row := r.db.pool.QueryRow(ctx, `
		INSERT INTO videos (id, title, remote_asset_id, processing_status)
		VALUES ($1, $2, $3, $4)
		RETURNING `+videoColumns+`
	`, params.ID, params.Title, params.RemoteAssetID, status)

	video, err := scanVideo(row)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateRemoteID
		}
		return nil, fmt.Errorf("insert video: %w", err)
	}

	return video, nil
}

// GetByID retrieves a video record by its local id.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*VideoRecord, error) {
	row := r.db.pool.QueryRow(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE id = $1
	`, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("query video: %w", err)
	}

	return video, nil
}

// GetByRemoteID retrieves the single video record for a remote asset id.
// Zero matches return ErrVideoNotFound; more than one match returns
// ErrAmbiguousRemoteID. Both fail loudly rather than guessing.
func (r *VideoRepository) GetByRemoteID(ctx context.Context, remoteAssetID string) (*VideoRecord, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+videoColumns+` FROM videos WHERE remote_asset_id = $1 LIMIT 2
	`, remoteAssetID)
	if err != nil {
		return nil, fmt.Errorf("query video by remote id: %w", err)
	}
	defer rows.Close()

	var videos []*VideoRecord
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	switch len(videos) {
	case 0:
		return nil, ErrVideoNotFound
	case 1:
		return videos[0], nil
	default:
		return nil, ErrAmbiguousRemoteID
	}
}

// transitionApplied reports whether the record already reflects the mapped
// result, making a second application a no-op.
func transitionApplied(v *VideoRecord, tr Transition) bool {
	if v.ProcessingStatus != tr.Status || v.IsPublished != tr.Publish {
		return false
	}
	m := tr.Metadata
	if m.DurationSeconds != nil && !ptrEqual(v.DurationSeconds, m.DurationSeconds) {
		return false
	}
	if m.Width != nil && !ptrEqual(v.Width, m.Width) {
		return false
	}
	if m.Height != nil && !ptrEqual(v.Height, m.Height) {
		return false
	}
	if m.PlaybackURL != nil && !ptrEqual(v.PlaybackURL, m.PlaybackURL) {
		return false
	}
	if m.ThumbnailURL != nil && !ptrEqual(v.ThumbnailURL, m.ThumbnailURL) {
		return false
	}
	if m.PreviewURL != nil && !ptrEqual(v.PreviewURL, m.PreviewURL) {
		return false
	}
	if m.SizeBytes != nil && !ptrEqual(v.SizeBytes, m.SizeBytes) {
		return false
	}
	if tr.Error != nil {
		if v.ErrorCode == nil || *v.ErrorCode != tr.Error.Code {
			return false
		}
		if v.ErrorMessage == nil || *v.ErrorMessage != tr.Error.Message {
			return false
		}
	}
	return true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ApplyTransition applies a mapped result to a video record as one atomic
// row update. Absent metadata fields are left untouched. Applying a
// transition the record already reflects is a no-op: the row (including
// updated_at) is not rewritten, so dependent side effects cannot re-trigger.
func (r *VideoRepository) ApplyTransition(ctx context.Context, video *VideoRecord, tr Transition) (*VideoRecord, error) {
	if transitionApplied(video, tr) {
		return video, nil
	}

	setClauses := []string{
		"processing_status = $2",
		"is_published = $3",
		"updated_at = NOW()",
	}
	args := []interface{}{video.ID, tr.Status, tr.Publish}
	argIdx := 4

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	m := tr.Metadata
	if m.DurationSeconds != nil {
		addSet("duration_seconds", *m.DurationSeconds)
	}
	if m.Width != nil {
		addSet("width", *m.Width)
	}
	if m.Height != nil {
		addSet("height", *m.Height)
	}
	if m.PlaybackURL != nil {
		addSet("playback_url", *m.PlaybackURL)
	}
	if m.ThumbnailURL != nil {
		addSet("thumbnail_url", *m.ThumbnailURL)
	}
	if m.PreviewURL != nil {
		addSet("preview_url", *m.PreviewURL)
	}
	if m.SizeBytes != nil {
		addSet("size_bytes", *m.SizeBytes)
	}

	// Error fields are non-null iff the record is in error status.
	if tr.Status == StatusError && tr.Error != nil {
		addSet("error_code", tr.Error.Code)
		addSet("error_message", tr.Error.Message)
	} else if tr.Status != StatusError {
		setClauses = append(setClauses, "error_code = NULL", "error_message = NULL")
	}

	query := fmt.Sprintf(`
		UPDATE videos
		SET %s
		WHERE id = $1
		RETURNING `+videoColumns,
		strings.Join(setClauses, ", "))

	updated, err := scanVideo(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	return updated, nil
}

// ListInFlight returns all videos whose status is uploading or processing,
// ordered oldest first so the longest-stuck records are reconciled first.
func (r *VideoRepository) ListInFlight(ctx context.Context) ([]*VideoRecord, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+videoColumns+`
		FROM videos
		WHERE processing_status IN ($1, $2)
		ORDER BY created_at
	`, StatusUploading, StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("query in-flight videos: %w", err)
	}
	defer rows.Close()

	var videos []*VideoRecord
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

// ListParams contains parameters for listing videos.
type ListParams struct {
	Status *ProcessingStatus
	Limit  int
	Offset int
}

// List retrieves videos with optional status filtering.
func (r *VideoRepository) List(ctx context.Context, params ListParams) ([]*VideoRecord, int, error) {
	if params.Limit <= 0 {
		params.Limit = 50
	}
	if params.Limit > 100 {
		params.Limit = 100
	}

	baseQuery := "FROM videos"
	var args []interface{}
	argIdx := 1

	if params.Status != nil {
		baseQuery += fmt.Sprintf(" WHERE processing_status = $%d", argIdx)
		args = append(args, *params.Status)
		argIdx++
	}

	var total int
	countQuery := "SELECT COUNT(*) " + baseQuery
	if err := r.db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT `+videoColumns+`
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIdx, argIdx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.db.pool.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []*VideoRecord
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, total, nil
}

// MarkRetry records a manual re-processing request: back to processing,
// unpublished, retry counter bumped.
func (r *VideoRepository) MarkRetry(ctx context.Context, id string) (*VideoRecord, error) {
	row := r.db.pool.QueryRow(ctx, `
		UPDATE videos
		SET processing_status = $2,
		    is_published = FALSE,
		    error_code = NULL,
		    error_message = NULL,
		    retry_count = retry_count + 1,
		    last_retry_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+videoColumns,
		id, StatusProcessing)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("mark retry: %w", err)
	}

	return video, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	// SQLSTATE 23505: unique_violation
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
