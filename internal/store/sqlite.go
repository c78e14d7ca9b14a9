package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/heritage-atlas/heritage-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS heritage (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT NOT NULL,
	country            TEXT NOT NULL DEFAULT '',
	region             TEXT NOT NULL DEFAULT '',
	category           TEXT NOT NULL DEFAULT '',
	short_description  TEXT NOT NULL DEFAULT '',
	main_image_url     TEXT NOT NULL DEFAULT '',
	gallery_image_urls TEXT NOT NULL DEFAULT '',
	latitude           REAL,
	longitude          REAL,
	image_license      TEXT NOT NULL DEFAULT '',
	data_source        TEXT NOT NULL DEFAULT '',
	enriched_at        DATETIME,
	wikidata_qid       TEXT NOT NULL DEFAULT '',
	commons_category   TEXT NOT NULL DEFAULT '',
	year_inscribed     INTEGER,
	is_favorite        INTEGER NOT NULL DEFAULT 0,
	is_visited         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sweeps (
	id              TEXT PRIMARY KEY,
	status          TEXT NOT NULL DEFAULT 'running',
	targets         INTEGER NOT NULL DEFAULT 0,
	missing_main    INTEGER NOT NULL DEFAULT 0,
	missing_gallery INTEGER NOT NULL DEFAULT 0,
	missing_coords  INTEGER NOT NULL DEFAULT 0,
	report_path     TEXT NOT NULL DEFAULT '',
	started_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_heritage_name ON heritage(name);
CREATE INDEX IF NOT EXISTS idx_heritage_country ON heritage(country);
CREATE INDEX IF NOT EXISTS idx_sweeps_started_at ON sweeps(started_at);
`

// gapPredicate selects records missing any of the three tracked fields.
// A (0,0) coordinate pair counts as unset.
const gapPredicate = `main_image_url = ''
	OR gallery_image_urls = ''
	OR latitude IS NULL OR longitude IS NULL
	OR (latitude = 0 AND longitude = 0)`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const heritageColumns = `id, name, country, region, category, short_description,
	main_image_url, gallery_image_urls, latitude, longitude, image_license,
	data_source, enriched_at, wikidata_qid, commons_category, year_inscribed,
	is_favorite, is_visited`

func (s *SQLiteStore) Insert(ctx context.Context, rec *model.HeritageRecord) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO heritage (name, country, region, category, short_description,
			main_image_url, gallery_image_urls, latitude, longitude, image_license,
			data_source, enriched_at, wikidata_qid, commons_category, year_inscribed,
			is_favorite, is_visited)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Country, rec.Region, rec.Category, rec.ShortDescription,
		rec.MainImageURL, rec.GalleryImageURLs, rec.Latitude, rec.Longitude,
		rec.ImageLicense, string(rec.DataSource), rec.EnrichedAt,
		rec.WikidataQID, rec.CommonsCategory, rec.YearInscribed,
		rec.IsFavorite, rec.IsVisited,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert record %q", rec.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	rec.ID = id
	return nil
}

func (s *SQLiteStore) Save(ctx context.Context, rec *model.HeritageRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE heritage SET name = ?, country = ?, region = ?, category = ?,
			short_description = ?, main_image_url = ?, gallery_image_urls = ?,
			latitude = ?, longitude = ?, image_license = ?, data_source = ?,
			enriched_at = ?, wikidata_qid = ?, commons_category = ?,
			year_inscribed = ?, is_favorite = ?, is_visited = ?
		 WHERE id = ?`,
		rec.Name, rec.Country, rec.Region, rec.Category, rec.ShortDescription,
		rec.MainImageURL, rec.GalleryImageURLs, rec.Latitude, rec.Longitude,
		rec.ImageLicense, string(rec.DataSource), rec.EnrichedAt,
		rec.WikidataQID, rec.CommonsCategory, rec.YearInscribed,
		rec.IsFavorite, rec.IsVisited, rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save record %d", rec.ID)
	}
	return checkRowsAffected(res, "record", rec.ID)
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.HeritageRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+heritageColumns+` FROM heritage WHERE id = ?`, id)
	return scanRecord(row)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM heritage`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count records")
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM heritage`)
	return eris.Wrap(err, "sqlite: delete all records")
}

// FindGapRecords materializes the current gap set once. Gap flags are
// classified in memory from the typed fields, not stored.
func (s *SQLiteStore) FindGapRecords(ctx context.Context) ([]GapRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+heritageColumns+` FROM heritage WHERE `+gapPredicate+` ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find gap records")
	}
	defer rows.Close()

	var out []GapRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, GapRecord{Record: *rec, Gaps: model.Classify(rec)})
	}
	return out, eris.Wrap(rows.Err(), "sqlite: find gap records iterate")
}

func (s *SQLiteStore) CountGaps(ctx context.Context) (GapCounts, error) {
	var gc GapCounts
	err := s.db.QueryRowContext(ctx, `SELECT
		COUNT(CASE WHEN main_image_url = '' THEN 1 END),
		COUNT(CASE WHEN gallery_image_urls = '' THEN 1 END),
		COUNT(CASE WHEN latitude IS NULL OR longitude IS NULL
			OR (latitude = 0 AND longitude = 0) THEN 1 END)
		FROM heritage`).Scan(&gc.MainImage, &gc.Gallery, &gc.Coordinates)
	return gc, eris.Wrap(err, "sqlite: count gaps")
}

func (s *SQLiteStore) CreateSweep(ctx context.Context, sweep *model.Sweep) error {
	if sweep.StartedAt.IsZero() {
		sweep.StartedAt = time.Now().UTC()
	}
	if sweep.Status == "" {
		sweep.Status = model.SweepStatusRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sweeps (id, status, targets, missing_main, missing_gallery,
			missing_coords, report_path, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sweep.ID, string(sweep.Status), sweep.Targets, sweep.MissingMain,
		sweep.MissingGallery, sweep.MissingCoords, sweep.ReportPath, sweep.StartedAt,
	)
	return eris.Wrapf(err, "sqlite: insert sweep %s", sweep.ID)
}

func (s *SQLiteStore) CompleteSweep(ctx context.Context, sweep *model.Sweep) error {
	now := time.Now().UTC()
	sweep.FinishedAt = &now
	res, err := s.db.ExecContext(ctx,
		`UPDATE sweeps SET status = ?, targets = ?, missing_main = ?,
			missing_gallery = ?, missing_coords = ?, report_path = ?, finished_at = ?
		 WHERE id = ?`,
		string(sweep.Status), sweep.Targets, sweep.MissingMain,
		sweep.MissingGallery, sweep.MissingCoords, sweep.ReportPath,
		sweep.FinishedAt, sweep.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete sweep %s", sweep.ID)
	}
	return checkRowsAffected(res, "sweep", sweep.ID)
}

func (s *SQLiteStore) LastSweep(ctx context.Context) (*model.Sweep, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, targets, missing_main, missing_gallery, missing_coords,
			report_path, started_at, finished_at
		 FROM sweeps ORDER BY started_at DESC LIMIT 1`)

	var sw model.Sweep
	var finished sql.NullTime
	err := row.Scan(&sw.ID, &sw.Status, &sw.Targets, &sw.MissingMain,
		&sw.MissingGallery, &sw.MissingCoords, &sw.ReportPath, &sw.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last sweep")
	}
	if finished.Valid {
		sw.FinishedAt = &finished.Time
	}
	return &sw, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %v", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.HeritageRecord, error) {
	var r model.HeritageRecord
	var lat, lon sql.NullFloat64
	var enrichedAt sql.NullTime
	var year sql.NullInt64
	var source string

	err := row.Scan(&r.ID, &r.Name, &r.Country, &r.Region, &r.Category,
		&r.ShortDescription, &r.MainImageURL, &r.GalleryImageURLs,
		&lat, &lon, &r.ImageLicense, &source, &enrichedAt,
		&r.WikidataQID, &r.CommonsCategory, &year, &r.IsFavorite, &r.IsVisited)
	if err == sql.ErrNoRows {
		return nil, eris.New("record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan record")
	}

	r.DataSource = model.DataSource(source)
	if lat.Valid {
		r.Latitude = &lat.Float64
	}
	if lon.Valid {
		r.Longitude = &lon.Float64
	}
	if enrichedAt.Valid {
		r.EnrichedAt = &enrichedAt.Time
	}
	if year.Valid {
		y := int(year.Int64)
		r.YearInscribed = &y
	}
	return &r, nil
}
