package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/intake-api/internal/model"
)

func (g *Gateway) UploadFile(ctx context.Context, bucketID string, file model.File) (f *model.StoredFile, err error) {
	defer func(start time.Time) { g.observe("upload_file", start, err) }(time.Now())

	stored := model.StoredFile{
		ID:          uuid.NewString(),
		BucketID:    bucketID,
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        int64(len(file.Data)),
	}

	query := `
		INSERT INTO files (id, bucket_id, name, content_type, size, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = g.db.ExecContext(ctx, query,
		stored.ID,
		stored.BucketID,
		stored.Name,
		stored.ContentType,
		stored.Size,
		file.Data,
		g.now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", translate(err))
	}

	stored.URL = g.FileURL(bucketID, stored.ID)
	return &stored, nil
}

func (g *Gateway) GetFile(ctx context.Context, bucketID, fileID string) (f *model.StoredFile, data []byte, err error) {
	defer func(start time.Time) { g.observe("get_file", start, err) }(time.Now())

	var row struct {
		model.StoredFile
		Data []byte `db:"data"`
	}
	query := `
		SELECT id, bucket_id, name, content_type, size, data
		FROM files
		WHERE bucket_id = $1 AND id = $2
	`
	if err := g.db.GetContext(ctx, &row, query, bucketID, fileID); err != nil {
		return nil, nil, fmt.Errorf("failed to get file %s: %w", fileID, translate(err))
	}

	stored := row.StoredFile
	stored.URL = g.FileURL(bucketID, stored.ID)
	return &stored, row.Data, nil
}

// FileURL is the address a stored file is published under.
func (g *Gateway) FileURL(bucketID, fileID string) string {
	return fmt.Sprintf("%s/%s/%s", g.fileURLBase, url.PathEscape(bucketID), url.PathEscape(fileID))
}
