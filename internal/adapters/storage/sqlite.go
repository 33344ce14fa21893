package storage

// sqlite.go: histórico de pases en SQLite.
//
// Estrategia:
//   - `passes`: resumen ligero por pase (candidatos, mejor score). Siempre 1 fila.
//   - `pairs`: UNA fila por par (UPSERT) con la última observación puntuada,
//     first_seen / last_seen y el pico de score.
//   - Prune automático al arrancar: passes > 30d, pares no vistos en 14d.
//
// Los tiempos se guardan como unix millis para que los rangos se comparen
// como enteros.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alejandrodnm/pairscout/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Resumen ligero por pase de descubrimiento
CREATE TABLE IF NOT EXISTS passes (
    id          TEXT PRIMARY KEY,
    recorded_at INTEGER NOT NULL,
    matched     INTEGER NOT NULL DEFAULT 0,
    strong      INTEGER NOT NULL DEFAULT 0,
    best_score  REAL    NOT NULL DEFAULT 0
);

-- Una fila por par, sin duplicados
CREATE TABLE IF NOT EXISTS pairs (
    pair_id         TEXT PRIMARY KEY,
    chain_id        TEXT,
    venue           TEXT,
    url             TEXT,
    base_asset      TEXT    NOT NULL,
    quote_asset     TEXT    NOT NULL,
    base_symbol     TEXT,
    quote_symbol    TEXT,
    liquidity_usd   REAL    NOT NULL DEFAULT 0,
    volume_24h_usd  REAL    NOT NULL DEFAULT 0,
    volume_1h_usd   REAL    NOT NULL DEFAULT 0,
    market_cap_usd  REAL    NOT NULL DEFAULT 0,
    price_usd       REAL    NOT NULL DEFAULT 0,
    price_change_24 REAL    NOT NULL DEFAULT 0,
    price_change_1h REAL    NOT NULL DEFAULT 0,
    tx_count_24h    INTEGER NOT NULL DEFAULT 0,
    buys_24h        INTEGER NOT NULL DEFAULT 0,
    sells_24h       INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER,
    source          TEXT,
    freshness       REAL    NOT NULL DEFAULT 0,
    activity        REAL    NOT NULL DEFAULT 0,
    momentum        REAL    NOT NULL DEFAULT 0,
    safety_proxy    REAL    NOT NULL DEFAULT 0,
    composite_score REAL    NOT NULL DEFAULT 0,
    classification  TEXT    NOT NULL,
    last_pass_id    TEXT    NOT NULL,
    first_seen      INTEGER NOT NULL,
    last_seen       INTEGER NOT NULL,
    peak_score      REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_passes_at   ON passes(recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_pairs_last  ON pairs(last_seen DESC);
CREATE INDEX IF NOT EXISTS idx_pairs_score ON pairs(composite_score DESC);
`

const (
	retentionPasses = 30 * 24 * time.Hour // pases: 30 días
	retentionPairs  = 14 * 24 * time.Hour // pares: 14 días sin verse
	strongLabel     = "STRONG"
)

// SQLiteStorage implementa ports.HistorySink usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema y limpia datos antiguos.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.pruneOld(context.Background(), time.Now()); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: %w", err)
	}
	return s, nil
}

// Append persiste el resumen del pase y hace upsert de cada par puntuado.
func (s *SQLiteStorage) Append(ctx context.Context, passID string, scored []domain.ScoredCandidate) error {
	if len(scored) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Append: begin tx: %w", err)
	}
	defer tx.Rollback()

	strong, best := passSummary(scored)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO passes (id, recorded_at, matched, strong, best_score) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		passID, now.UnixMilli(), len(scored), strong, best,
	); err != nil {
		return fmt.Errorf("storage.Append: insert pass: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pairs
			(pair_id, chain_id, venue, url, base_asset, quote_asset, base_symbol, quote_symbol,
			 liquidity_usd, volume_24h_usd, volume_1h_usd, market_cap_usd, price_usd,
			 price_change_24, price_change_1h, tx_count_24h, buys_24h, sells_24h,
			 created_at, source, freshness, activity, momentum, safety_proxy,
			 composite_score, classification, last_pass_id, first_seen, last_seen, peak_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pair_id) DO UPDATE SET
			chain_id        = excluded.chain_id,
			venue           = excluded.venue,
			url             = excluded.url,
			base_symbol     = excluded.base_symbol,
			quote_symbol    = excluded.quote_symbol,
			liquidity_usd   = excluded.liquidity_usd,
			volume_24h_usd  = excluded.volume_24h_usd,
			volume_1h_usd   = excluded.volume_1h_usd,
			market_cap_usd  = excluded.market_cap_usd,
			price_usd       = excluded.price_usd,
			price_change_24 = excluded.price_change_24,
			price_change_1h = excluded.price_change_1h,
			tx_count_24h    = excluded.tx_count_24h,
			buys_24h        = excluded.buys_24h,
			sells_24h       = excluded.sells_24h,
			created_at      = COALESCE(pairs.created_at, excluded.created_at),
			source          = excluded.source,
			freshness       = excluded.freshness,
			activity        = excluded.activity,
			momentum        = excluded.momentum,
			safety_proxy    = excluded.safety_proxy,
			composite_score = excluded.composite_score,
			classification  = excluded.classification,
			last_pass_id    = excluded.last_pass_id,
			last_seen       = MAX(pairs.last_seen, excluded.last_seen),
			peak_score      = MAX(pairs.peak_score, excluded.composite_score)
	`)
	if err != nil {
		return fmt.Errorf("storage.Append: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sc := range scored {
		seen := sc.ObservedAt
		if seen.IsZero() {
			seen = now
		}
		var createdAt *int64
		if sc.HasCreatedAt() {
			ms := sc.CreatedAt.UnixMilli()
			createdAt = &ms
		}

		if _, err := stmt.ExecContext(ctx,
			sc.PairID, sc.ChainID, sc.Venue, sc.URL,
			sc.BaseAssetID, sc.QuoteAssetID, sc.BaseSymbol, sc.QuoteSymbol,
			sc.LiquidityUSD, sc.Volume24hUSD, sc.Volume1hUSD, sc.MarketCapUSD, sc.PriceUSD,
			sc.PriceChange24, sc.PriceChange1h, sc.TxCount24h, sc.Buys24h, sc.Sells24h,
			createdAt, sc.Source,
			sc.SubScores[domain.SubScoreFreshness],
			sc.SubScores[domain.SubScoreActivity],
			sc.SubScores[domain.SubScoreMomentum],
			sc.SubScores[domain.SubScoreSafetyProxy],
			sc.CompositeScore, sc.Classification, passID,
			seen.UnixMilli(), // first_seen: ignorado en ON CONFLICT
			seen.UnixMilli(),
			sc.CompositeScore,
		); err != nil {
			return fmt.Errorf("storage.Append: upsert %s: %w", sc.PairID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Append: commit: %w", err)
	}
	return nil
}

// GetHistory devuelve la última observación de cada par cuyo last_seen está en
// el rango dado. Ordenadas por score desc, las mejores primero.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.ScoredCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pair_id, chain_id, venue, url, base_asset, quote_asset, base_symbol, quote_symbol,
		       liquidity_usd, volume_24h_usd, volume_1h_usd, market_cap_usd, price_usd,
		       price_change_24, price_change_1h, tx_count_24h, buys_24h, sells_24h,
		       created_at, source, freshness, activity, momentum, safety_proxy,
		       composite_score, classification, last_seen
		FROM pairs
		WHERE last_seen BETWEEN ? AND ?
		ORDER BY composite_score DESC, last_seen DESC, pair_id
	`, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	out := []domain.ScoredCandidate{}
	for rows.Next() {
		var (
			sc                                domain.ScoredCandidate
			chain, venue, url, source         sql.NullString
			baseSym, quoteSym                 sql.NullString
			createdAt                         sql.NullInt64
			lastSeen                          int64
			fresh, activity, momentum, safety float64
		)
		if err := rows.Scan(
			&sc.PairID, &chain, &venue, &url, &sc.BaseAssetID, &sc.QuoteAssetID, &baseSym, &quoteSym,
			&sc.LiquidityUSD, &sc.Volume24hUSD, &sc.Volume1hUSD, &sc.MarketCapUSD, &sc.PriceUSD,
			&sc.PriceChange24, &sc.PriceChange1h, &sc.TxCount24h, &sc.Buys24h, &sc.Sells24h,
			&createdAt, &source, &fresh, &activity, &momentum, &safety,
			&sc.CompositeScore, &sc.Classification, &lastSeen,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		sc.ChainID, sc.Venue, sc.URL, sc.Source = chain.String, venue.String, url.String, source.String
		sc.BaseSymbol, sc.QuoteSymbol = baseSym.String, quoteSym.String
		if createdAt.Valid {
			sc.CreatedAt = time.UnixMilli(createdAt.Int64).UTC()
		}
		sc.ObservedAt = time.UnixMilli(lastSeen).UTC()
		sc.SubScores = map[string]float64{
			domain.SubScoreFreshness:   fresh,
			domain.SubScoreActivity:    activity,
			domain.SubScoreMomentum:    momentum,
			domain.SubScoreSafetyProxy: safety,
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetHistory: rows: %w", err)
	}
	return out, nil
}

// PassCount devuelve cuántos pases hay registrados.
func (s *SQLiteStorage) PassCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("storage.PassCount: %w", err)
	}
	return n, nil
}

// PeakScore devuelve el mejor score registrado para un par.
func (s *SQLiteStorage) PeakScore(ctx context.Context, pairID string) (float64, error) {
	var peak float64
	err := s.db.QueryRowContext(ctx, `SELECT peak_score FROM pairs WHERE pair_id = ?`, pairID).Scan(&peak)
	if err != nil {
		return 0, fmt.Errorf("storage.PeakScore: %s: %w", pairID, err)
	}
	return peak, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM passes WHERE recorded_at < ?`,
		now.Add(-retentionPasses).UnixMilli()); err != nil {
		return fmt.Errorf("prune passes: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pairs WHERE last_seen < ?`,
		now.Add(-retentionPairs).UnixMilli()); err != nil {
		return fmt.Errorf("prune pairs: %w", err)
	}
	return nil
}

// passSummary extrae el conteo STRONG y el mejor score del pase.
func passSummary(scored []domain.ScoredCandidate) (strong int, best float64) {
	for _, sc := range scored {
		if sc.Classification == strongLabel {
			strong++
		}
		if sc.CompositeScore > best {
			best = sc.CompositeScore
		}
	}
	return
}
