package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/izzyreal/stitch/internal/catalog"
)

const (
	metaSource      = "source"
	metaImportedUTC = "imported_utc"
)

// ImportCatalog replaces the stored snapshot with cat in one transaction.
// Every collection is stored explicitly, including derived ones.
func (s *Store) ImportCatalog(cat *catalog.Catalog) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"games", "categories", "collection_items", "catalog_meta"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, g := range cat.Games() {
		if err := insertGame(tx, i, g); err != nil {
			return err
		}
	}

	for i, c := range cat.Categories() {
		subsJSON, _ := json.Marshal(c.SubCategories)
		if _, err := tx.Exec(`
			INSERT INTO categories (position, main_category, sub_categories_json)
			VALUES (?, ?, ?)
		`, i, c.MainCategory, string(subsJSON)); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	for _, name := range cat.CollectionNames() {
		ids, _ := cat.CollectionIDs(name)
		for pos, id := range ids {
			if _, err := tx.Exec(`
				INSERT INTO collection_items (name, position, game_id) VALUES (?, ?, ?)
			`, name, pos, id); err != nil {
				return fmt.Errorf("insert collection item: %w", err)
			}
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, value := range map[string]string{metaSource: cat.Source(), metaImportedUTC: now} {
		if _, err := tx.Exec(`INSERT INTO catalog_meta (key, value) VALUES (?, ?)`, key, value); err != nil {
			return fmt.Errorf("insert catalog meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertGame(tx *sql.Tx, position int, g catalog.Game) error {
	tagsJSON, _ := json.Marshal(g.Tags)
	platformsJSON, _ := json.Marshal(g.Platforms)
	mediaJSON, _ := json.Marshal(g.Media)
	if _, err := tx.Exec(`
		INSERT INTO games (id, position, title, tags_json, platforms_json, base_price, current_price, discount_percentage,
			review_score, review_count, media_json, publish_date, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, position, g.Title, string(tagsJSON), string(platformsJSON),
		g.Pricing.BasePrice, g.Pricing.CurrentPrice, g.Pricing.DiscountPercentage,
		g.Reviews.Score, g.Reviews.Count, string(mediaJSON),
		nullTime(g.PublishDate), nullTime(g.LastUpdate)); err != nil {
		return fmt.Errorf("insert game %d: %w", g.ID, err)
	}
	return nil
}

// LoadCatalog rebuilds the catalog snapshot. An empty store yields an empty
// catalog with the default category system.
func (s *Store) LoadCatalog() (*catalog.Catalog, error) {
	games, err := s.listGames()
	if err != nil {
		return nil, err
	}
	categories, err := s.listCategories()
	if err != nil {
		return nil, err
	}
	collections, err := s.listCollections()
	if err != nil {
		return nil, err
	}
	return catalog.New(games, categories, collections, "sqlite:"+s.path), nil
}

// ImportedUTC returns when the snapshot was last imported, zero if never.
func (s *Store) ImportedUTC() (time.Time, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM catalog_meta WHERE key = ?`, metaImportedUTC).Scan(&raw)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query catalog meta: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse imported_utc %q: %w", raw, err)
	}
	return t, nil
}

func (s *Store) listGames() ([]catalog.Game, error) {
	rows, err := s.db.Query(`
		SELECT id, title, tags_json, platforms_json, base_price, current_price, discount_percentage,
			review_score, review_count, media_json, publish_date, last_update
		FROM games
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []catalog.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return out, nil
}

func scanGame(scanner interface{ Scan(dest ...any) error }) (catalog.Game, error) {
	var (
		g                                  catalog.Game
		tagsJSON, platformsJSON, mediaJSON string
		publishDate, lastUpdate            sql.NullString
	)
	if err := scanner.Scan(
		&g.ID, &g.Title, &tagsJSON, &platformsJSON,
		&g.Pricing.BasePrice, &g.Pricing.CurrentPrice, &g.Pricing.DiscountPercentage,
		&g.Reviews.Score, &g.Reviews.Count, &mediaJSON, &publishDate, &lastUpdate,
	); err != nil {
		return catalog.Game{}, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &g.Tags)
	_ = json.Unmarshal([]byte(platformsJSON), &g.Platforms)
	_ = json.Unmarshal([]byte(mediaJSON), &g.Media)
	if publishDate.Valid {
		g.PublishDate = catalog.ParseDate(publishDate.String)
	}
	if lastUpdate.Valid {
		g.LastUpdate = catalog.ParseDate(lastUpdate.String)
	}
	return g, nil
}

func (s *Store) listCategories() ([]catalog.Category, error) {
	rows, err := s.db.Query(`SELECT main_category, sub_categories_json FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		var (
			c        catalog.Category
			subsJSON string
		)
		if err := rows.Scan(&c.MainCategory, &subsJSON); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		_ = json.Unmarshal([]byte(subsJSON), &c.SubCategories)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *Store) listCollections() (map[string][]int, error) {
	rows, err := s.db.Query(`SELECT name, game_id FROM collection_items ORDER BY name, position`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	out := map[string][]int{}
	for rows.Next() {
		var (
			name string
			id   int
		)
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("scan collection item: %w", err)
		}
		out[name] = append(out[name], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return out, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
