// Package library is the storage layer for the scraped catalog: plain rows
// for parts, embedded passages for repairs and blog posts.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"chandler/pkg/models"
)

const (
	TableRepairs = "repairs"
	TableBlogs   = "blogs"
)

// Document is one passage returned by semantic search.
type Document struct {
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Store wraps the catalog database.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Search returns the passages nearest to the embedding from the named table,
// most similar first.
func (s *Store) Search(ctx context.Context, table string, embedding []float32, limit int) ([]Document, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	if limit <= 0 {
		limit = 5
	}

	var query string
	switch table {
	case TableRepairs:
		query = `
			SELECT symptom, COALESCE(symptom_detail_url, ''), doc_text,
				1 - (embedding <=> $1) AS similarity
			FROM repairs
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2
		`
	case TableBlogs:
		query = `
			SELECT title, url, doc_text,
				1 - (embedding <=> $1) AS similarity
			FROM blogs
			WHERE embedding IS NOT NULL
			ORDER BY embedding <=> $1
			LIMIT $2
		`
	default:
		return nil, fmt.Errorf("unknown table %q", table)
	}

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", table, err)
	}
	defer rows.Close()

	var documents []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Title, &doc.URL, &doc.Text, &doc.Similarity); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", table, err)
		}
		documents = append(documents, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", table, err)
	}

	return documents, nil
}

// UpsertParts writes scraped parts, replacing existing rows by part id.
func (s *Store) UpsertParts(ctx context.Context, parts []models.Part) error {
	if len(parts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, part := range parts {
		if part.PartID == "" {
			return errors.New("part id is required")
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parts (
				part_id, part_name, mpn_id, part_price, install_difficulty,
				install_time, symptoms, appliance_types, replace_parts, brand,
				availability, install_video_url, product_url, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
			ON CONFLICT (part_id) DO UPDATE SET
				part_name = EXCLUDED.part_name,
				mpn_id = EXCLUDED.mpn_id,
				part_price = EXCLUDED.part_price,
				install_difficulty = EXCLUDED.install_difficulty,
				install_time = EXCLUDED.install_time,
				symptoms = EXCLUDED.symptoms,
				appliance_types = EXCLUDED.appliance_types,
				replace_parts = EXCLUDED.replace_parts,
				brand = EXCLUDED.brand,
				availability = EXCLUDED.availability,
				install_video_url = EXCLUDED.install_video_url,
				product_url = EXCLUDED.product_url,
				updated_at = NOW()
		`, part.PartID, part.PartName, part.MPNID, part.PartPrice, part.InstallDifficulty,
			part.InstallTime, part.Symptoms, part.ApplianceTypes, part.ReplaceParts, part.Brand,
			part.Availability, part.InstallVideoURL, part.ProductURL); err != nil {
			return fmt.Errorf("upsert part %s: %w", part.PartID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpsertRepairs writes scraped repairs with their doc embeddings. embeddings
// must be index-aligned with repairs.
func (s *Store) UpsertRepairs(ctx context.Context, repairs []models.Repair, embeddings [][]float32) error {
	if len(repairs) == 0 {
		return nil
	}
	if len(embeddings) != len(repairs) {
		return fmt.Errorf("got %d embeddings for %d repairs", len(embeddings), len(repairs))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, repair := range repairs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO repairs (
				appliance, symptom, description, percentage, parts,
				symptom_detail_url, difficulty, repair_video_url,
				doc_text, embedding, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
			ON CONFLICT (appliance, symptom) DO UPDATE SET
				description = EXCLUDED.description,
				percentage = EXCLUDED.percentage,
				parts = EXCLUDED.parts,
				symptom_detail_url = EXCLUDED.symptom_detail_url,
				difficulty = EXCLUDED.difficulty,
				repair_video_url = EXCLUDED.repair_video_url,
				doc_text = EXCLUDED.doc_text,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()
		`, repair.Appliance, repair.Symptom, repair.Description, repair.Percentage, repair.Parts,
			repair.SymptomDetailURL, repair.Difficulty, repair.RepairVideoURL,
			repair.DocText(), pgvector.NewVector(embeddings[i])); err != nil {
			return fmt.Errorf("upsert repair %s/%s: %w", repair.Appliance, repair.Symptom, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// UpsertBlogs writes scraped blog posts with their doc embeddings.
// embeddings must be index-aligned with posts.
func (s *Store) UpsertBlogs(ctx context.Context, posts []models.BlogPost, embeddings [][]float32) error {
	if len(posts) == 0 {
		return nil
	}
	if len(embeddings) != len(posts) {
		return fmt.Errorf("got %d embeddings for %d posts", len(embeddings), len(posts))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, post := range posts {
		if post.URL == "" {
			return errors.New("blog url is required")
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO blogs (title, url, doc_text, embedding, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (url) DO UPDATE SET
				title = EXCLUDED.title,
				doc_text = EXCLUDED.doc_text,
				embedding = EXCLUDED.embedding,
				updated_at = NOW()
		`, post.Title, post.URL, post.DocText(), pgvector.NewVector(embeddings[i])); err != nil {
			return fmt.Errorf("upsert blog %s: %w", post.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
