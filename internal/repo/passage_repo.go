package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/kbrag/kbrag/internal/model"
	"github.com/kbrag/kbrag/internal/pkg/dbutil"
)

var passageFields = []string{"id", "document_id", "chunk_index", "content", "vector_row_id"}

type PassageRepo struct {
	db *sql.DB
}

func NewPassageRepo(db *sql.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

func (r *PassageRepo) CreateBatch(ctx context.Context, passages []*model.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(passages))
	for _, p := range passages {
		data = append(data, map[string]interface{}{
			"id":            p.ID,
			"document_id":   p.DocumentID,
			"chunk_index":   p.ChunkIndex,
			"content":       p.Content,
			"vector_row_id": p.VectorRowID,
		})
	}
	sqlStr, args, err := builder.BuildInsert("passages", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return fmt.Errorf("passage rows already exist: %w", err)
		}
		return err
	}
	return nil
}

// ListByVectorRowIDs fetches passages for the given index rows. Fetch order
// is whatever the database returns; callers restore rank order themselves.
func (r *PassageRepo) ListByVectorRowIDs(ctx context.Context, rowIDs []int64) ([]model.Passage, error) {
	if len(rowIDs) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"vector_row_id in": rowIDs,
	}
	sqlStr, args, err := builder.BuildSelect("passages", where, passageFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPassages(rows)
}

func (r *PassageRepo) CountByDocumentID(ctx context.Context, docID string) (int, error) {
	where := map[string]interface{}{
		"document_id": docID,
	}
	sqlStr, args, err := builder.BuildSelect("passages", where, []string{"count(*)"})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PassageRepo) DeleteByDocumentID(ctx context.Context, docID string) error {
	where := map[string]interface{}{
		"document_id": docID,
	}
	sqlStr, args, err := builder.BuildDelete("passages", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanPassages(rows *sql.Rows) ([]model.Passage, error) {
	passages := make([]model.Passage, 0)
	for rows.Next() {
		var p model.Passage
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.ChunkIndex, &p.Content, &p.VectorRowID); err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}
