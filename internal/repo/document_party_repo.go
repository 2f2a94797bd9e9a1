package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/dbutil"
)

const (
	upsertSignatureSQL = "INSERT INTO document_signatures (document_id, identity, signed, mtime) VALUES (?, ?, ?, ?) " +
		"ON CONFLICT (document_id, identity) DO UPDATE SET signed = EXCLUDED.signed, mtime = EXCLUDED.mtime"
	ensureSignatureSQL = "INSERT INTO document_signatures (document_id, identity, signed, mtime) VALUES (?, ?, FALSE, ?) " +
		"ON CONFLICT (document_id, identity) DO NOTHING"
	resetWitnessForUnsignedSQL = "UPDATE documents SET witness_state = ?, witness_payload = '' WHERE id = ? AND witness_state <> ? " +
		"AND EXISTS (SELECT 1 FROM document_collaborators c LEFT JOIN document_signatures s " +
		"ON s.document_id = c.document_id AND s.identity = c.identity " +
		"WHERE c.document_id = ? AND NOT COALESCE(s.signed, FALSE))"
)

func (r *DocumentRepo) loadParties(ctx context.Context, doc *model.Document) error {
	collaborators, err := r.ListCollaborators(ctx, doc.ID)
	if err != nil {
		return wrapDocErr("load collaborators", err)
	}
	signatures, err := r.ListSignatures(ctx, doc.ID)
	if err != nil {
		return wrapDocErr("load signatures", err)
	}
	doc.Collaborators = collaborators
	doc.Signatures = signatures
	return nil
}

func (r *DocumentRepo) ListCollaborators(ctx context.Context, docID string) ([]string, error) {
	where := map[string]interface{}{
		"document_id": docID,
		"_orderby":    "position asc",
	}
	sqlStr, args, err := builder.BuildSelect("document_collaborators", where, []string{"identity"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make([]string, 0)
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, rows.Err()
}

func (r *DocumentRepo) ListSignatures(ctx context.Context, docID string) (map[string]bool, error) {
	sqlStr, args, err := builder.BuildSelect("document_signatures", map[string]interface{}{"document_id": docID}, []string{"identity", "signed"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]bool)
	for rows.Next() {
		var identity string
		var signed bool
		if err := rows.Scan(&identity, &signed); err != nil {
			return nil, err
		}
		out[identity] = signed
	}
	return out, rows.Err()
}

// ReplaceCollaborators stores the new ordered list. Identities without a
// signature entry get an unsigned one; existing entries, including those of
// removed collaborators, are left untouched. When the new list holds an
// unsigned collaborator the witness state goes back to none, so the next
// completing signature requests the witness again.
func (r *DocumentRepo) ReplaceCollaborators(ctx context.Context, docID string, collaborators []string, mtime int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		sqlStr, args, err := builder.BuildDelete("document_collaborators", map[string]interface{}{"document_id": docID})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		if err := insertCollaborators(ctx, tx, docID, collaborators, mtime); err != nil {
			return err
		}
		for _, identity := range collaborators {
			sqlStr, args := dbutil.Finalize(ensureSignatureSQL, []interface{}{docID, identity, mtime})
			if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
				return err
			}
		}
		none := int(model.WitnessStateNone)
		sqlStr, args = dbutil.Finalize(resetWitnessForUnsignedSQL, []interface{}{none, docID, none, docID})
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		sqlStr, args, err = builder.BuildUpdate("documents", map[string]interface{}{"id": docID}, map[string]interface{}{"mtime": mtime})
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		return execAffected(ctx, tx, sqlStr, args)
	})
}

// SetSignature writes a single signature entry.
func (r *DocumentRepo) SetSignature(ctx context.Context, docID, identity string, signed bool, mtime int64) error {
	return upsertSignature(ctx, r.db, docID, identity, signed, mtime)
}

func upsertSignature(ctx context.Context, db execer, docID, identity string, signed bool, mtime int64) error {
	sqlStr, args := dbutil.Finalize(upsertSignatureSQL, []interface{}{docID, identity, signed, mtime})
	_, err := db.ExecContext(ctx, sqlStr, args...)
	return err
}

func insertCollaborators(ctx context.Context, db execer, docID string, collaborators []string, ctime int64) error {
	if len(collaborators) == 0 {
		return nil
	}
	data := make([]map[string]interface{}, 0, len(collaborators))
	for i, identity := range collaborators {
		data = append(data, map[string]interface{}{
			"document_id": docID,
			"identity":    identity,
			"position":    i,
			"ctime":       ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("document_collaborators", data)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = db.ExecContext(ctx, sqlStr, args...)
	return err
}
