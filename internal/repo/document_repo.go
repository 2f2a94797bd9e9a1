package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/dbutil"
	appErr "github.com/xxxsen/accord/internal/pkg/errors"
)

var documentFields = []string{"id", "name", "content", "size", "type", "owner", "witness_state", "witness_payload", "ctime", "mtime"}

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (r *DocumentRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Create stores the document row, its collaborators and an unsigned entry for
// every participant.
func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		data := map[string]interface{}{
			"id":              doc.ID,
			"name":            doc.Name,
			"content":         doc.Content,
			"size":            doc.Size,
			"type":            doc.Type,
			"owner":           doc.Owner,
			"witness_state":   int(doc.WitnessState),
			"witness_payload": doc.WitnessPayload,
			"ctime":           doc.Ctime,
			"mtime":           doc.Mtime,
		}
		sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			if dbutil.IsConflict(err) {
				return appErr.ErrConflict
			}
			return err
		}
		if err := insertCollaborators(ctx, tx, doc.ID, doc.Collaborators, doc.Ctime); err != nil {
			return err
		}
		for identity, signed := range doc.Signatures {
			if err := upsertSignature(ctx, tx, doc.ID, identity, signed, doc.Mtime); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID loads the document together with its collaborators and signatures.
func (r *DocumentRepo) GetByID(ctx context.Context, docID string) (*model.Document, error) {
	doc, err := r.getOne(ctx, map[string]interface{}{"id": docID})
	if err != nil {
		return nil, err
	}
	if err := r.loadParties(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByNameForIdentity returns the most recently modified document with the
// name that identity owns or collaborates on.
func (r *DocumentRepo) GetByNameForIdentity(ctx context.Context, name, identity string) (*model.Document, error) {
	doc, err := r.getOne(ctx, map[string]interface{}{
		"name":          name,
		"_custom_party": partyClause(identity),
		"_orderby":      "mtime desc",
		"_limit":        []uint{0, 1},
	})
	if err != nil {
		return nil, err
	}
	if err := r.loadParties(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Document, error) {
	docs, err := r.query(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &docs[0], nil
}

func (r *DocumentRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Document, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, documentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Size, &doc.Type, &doc.Owner,
			&doc.WitnessState, &doc.WitnessPayload, &doc.Ctime, &doc.Mtime); err != nil {
			return nil, err
		}
		doc.WitnessStatus = doc.WitnessState.String()
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListForIdentity returns documents owned by or shared with identity, newest
// first. Collaborators and signatures are loaded for each.
func (r *DocumentRepo) ListForIdentity(ctx context.Context, identity string) ([]model.Document, error) {
	docs, err := r.query(ctx, map[string]interface{}{
		"_custom_party": partyClause(identity),
		"_orderby":      "mtime desc",
	})
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if err := r.loadParties(ctx, &docs[i]); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// ListByWitnessState returns document ids in the given witness state, oldest
// modification first.
func (r *DocumentRepo) ListByWitnessState(ctx context.Context, state model.WitnessState, limit uint) ([]string, error) {
	where := map[string]interface{}{
		"witness_state": int(state),
		"_orderby":      "mtime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	return r.selectIDs(ctx, where)
}

func (r *DocumentRepo) selectIDs(ctx context.Context, where map[string]interface{}) ([]string, error) {
	sqlStr, args, err := builder.BuildSelect("documents", where, []string{"id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateContent replaces the content, zeroes every signature entry and
// clears the witness state in one transaction.
func (r *DocumentRepo) UpdateContent(ctx context.Context, docID, content string, size, mtime int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		sqlStr, args, err := builder.BuildUpdate("documents", map[string]interface{}{"id": docID}, map[string]interface{}{
			"content":         content,
			"size":            size,
			"witness_state":   int(model.WitnessStateNone),
			"witness_payload": "",
			"mtime":           mtime,
		})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if err := execAffected(ctx, tx, sqlStr, args); err != nil {
			return err
		}
		sqlStr, args, err = builder.BuildUpdate("document_signatures", map[string]interface{}{"document_id": docID}, map[string]interface{}{
			"signed": false,
			"mtime":  mtime,
		})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		_, err = tx.ExecContext(ctx, sqlStr, args...)
		return err
	})
}

// TransitionWitness moves the witness state from one value to another only
// if the stored state still equals from, stamping witness_mtime with at. It
// reports whether this call won.
func (r *DocumentRepo) TransitionWitness(ctx context.Context, docID string, from, to model.WitnessState, at int64) (bool, error) {
	return r.updateWitness(ctx,
		map[string]interface{}{"id": docID, "witness_state": int(from)},
		map[string]interface{}{"witness_state": int(to), "witness_mtime": at},
	)
}

// ListStaleRequested returns ids of documents whose witness request was
// issued before the given time and never recorded a result.
func (r *DocumentRepo) ListStaleRequested(ctx context.Context, before int64, limit uint) ([]string, error) {
	where := map[string]interface{}{
		"witness_state":   int(model.WitnessStateRequested),
		"witness_mtime <": before,
		"_orderby":        "witness_mtime asc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	return r.selectIDs(ctx, where)
}

// ReclaimRequested re-stamps a stale requested document so a single caller
// can re-drive it.
func (r *DocumentRepo) ReclaimRequested(ctx context.Context, docID string, before, at int64) (bool, error) {
	return r.updateWitness(ctx,
		map[string]interface{}{"id": docID, "witness_state": int(model.WitnessStateRequested), "witness_mtime <": before},
		map[string]interface{}{"witness_mtime": at},
	)
}

func (r *DocumentRepo) updateWitness(ctx context.Context, where, update map[string]interface{}) (bool, error) {
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetWitnessResult records the outcome of a witness request. It only applies
// while the document is still in the requested state so that a content edit
// made during the call is not overwritten.
func (r *DocumentRepo) SetWitnessResult(ctx context.Context, docID string, state model.WitnessState, payload string) (bool, error) {
	return r.updateWitness(ctx,
		map[string]interface{}{"id": docID, "witness_state": int(model.WitnessStateRequested)},
		map[string]interface{}{"witness_state": int(state), "witness_payload": payload},
	)
}

func partyClause(identity string) interface{} {
	return builder.Custom(
		"(owner = ? OR id IN (SELECT document_id FROM document_collaborators WHERE identity = ?))",
		identity, identity,
	)
}

func execAffected(ctx context.Context, db execer, sqlStr string, args []interface{}) error {
	result, err := db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func wrapDocErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
