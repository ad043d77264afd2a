package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	body         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps documents in the documents table. It is both the
// Source the index is rebuilt from and the sink for ingested documents.
type PostgresStore struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgresStore(db *postgres.Client) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "corpus-postgres"),
	}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// Put inserts doc or replaces the text of an existing document with the
// same ID. It reports whether the stored text changed.
func (s *PostgresStore) Put(ctx context.Context, doc Document) (bool, error) {
	hash := ContentHash(doc.Text)
	var changed bool
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT content_hash FROM documents WHERE id = $1 FOR UPDATE`, doc.ID).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			changed = true
			_, err = tx.ExecContext(ctx,
				`INSERT INTO documents (id, body, content_hash) VALUES ($1, $2, $3)`,
				doc.ID, doc.Text, hash)
			return err
		case err != nil:
			return err
		case existing == hash:
			return nil
		default:
			changed = true
			_, err = tx.ExecContext(ctx,
				`UPDATE documents SET body = $2, content_hash = $3, updated_at = NOW() WHERE id = $1`,
				doc.ID, doc.Text, hash)
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("storing document %s: %w", doc.ID, err)
	}
	s.logger.Debug("document stored", "doc_id", doc.ID, "changed", changed)
	return changed, nil
}

// Get returns a single document.
func (s *PostgresStore) Get(ctx context.Context, id string) (Document, error) {
	doc := Document{ID: id}
	err := s.db.DB.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = $1`, id).Scan(&doc.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, apperrors.Newf(apperrors.ErrDocumentNotFound, 404, "document %q not found", id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("querying document %s: %w", id, err)
	}
	return doc, nil
}

// Load reads every stored document.
func (s *PostgresStore) Load(ctx context.Context) (Corpus, error) {
	rows, err := s.db.DB.QueryContext(ctx, `SELECT id, body FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	c := make(Corpus)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		c[id] = body
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document rows: %w", err)
	}
	return c, nil
}
