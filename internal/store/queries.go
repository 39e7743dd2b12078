package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const appColumns = `
	package_name, name, icon_url, dg_score, total_dg_ratings, mg_score, total_mg_ratings,
	ratings_list, notes, is_in_plexus_data, is_installed, installed_version, installed_build,
	installed_from, is_fav
`

// scoreFilter keeps a row when its score lies in [from, to] for both
// dimensions. A (-1, -1) pair switches that dimension off.
const scoreFilter = `
	AND ((dg_score >= @dg_from AND dg_score <= @dg_to) OR (@dg_from = -1 AND @dg_to = -1))
	AND ((mg_score >= @mg_from AND mg_score <= @mg_to) OR (@mg_from = -1 AND @mg_to = -1))
`

// nameOrder sorts by name in the requested direction. Rows with equal names
// come back in storage order, which is not guaranteed.
const nameOrder = `
	ORDER BY
	CASE WHEN @asc = 1 THEN name END ASC,
	CASE WHEN @asc = 0 THEN name END DESC
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanApp(row rowScanner) (*App, error) {
	var app App
	var ratingsJSON string
	var notes sql.NullString

	err := row.Scan(
		&app.PackageName,
		&app.Name,
		&app.IconURL,
		&app.DgScore,
		&app.TotalDgRatings,
		&app.MgScore,
		&app.TotalMgRatings,
		&ratingsJSON,
		&notes,
		&app.IsInPlexusData,
		&app.IsInstalled,
		&app.InstalledVersion,
		&app.InstalledBuild,
		&app.InstalledFrom,
		&app.IsFav,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		app.Notes = &notes.String
	}

	if ratingsJSON != "" {
		if err := json.Unmarshal([]byte(ratingsJSON), &app.Ratings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ratings for %s: %w", app.PackageName, err)
		}
	}

	return &app, nil
}

func appArgs(app *App) ([]any, error) {
	ratings := app.Ratings
	if ratings == nil {
		ratings = []Rating{}
	}
	ratingsJSON, err := json.Marshal(ratings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ratings for %s: %w", app.PackageName, err)
	}

	var notes sql.NullString
	if app.Notes != nil {
		notes = sql.NullString{String: *app.Notes, Valid: true}
	}

	return []any{
		sql.Named("package_name", app.PackageName),
		sql.Named("name", app.Name),
		sql.Named("icon_url", app.IconURL),
		sql.Named("dg_score", app.DgScore),
		sql.Named("total_dg_ratings", app.TotalDgRatings),
		sql.Named("mg_score", app.MgScore),
		sql.Named("total_mg_ratings", app.TotalMgRatings),
		sql.Named("ratings_list", string(ratingsJSON)),
		sql.Named("notes", notes),
		sql.Named("is_in_plexus_data", app.IsInPlexusData),
		sql.Named("is_installed", app.IsInstalled),
		sql.Named("installed_version", app.InstalledVersion),
		sql.Named("installed_build", app.InstalledBuild),
		sql.Named("installed_from", app.InstalledFrom),
		sql.Named("is_fav", app.IsFav),
	}, nil
}

func filterArgs(f Filter) []any {
	return []any{
		sql.Named("installed_from", f.InstalledFrom),
		sql.Named("dg_from", f.Dg.From),
		sql.Named("dg_to", f.Dg.To),
		sql.Named("mg_from", f.Mg.From),
		sql.Named("mg_to", f.Mg.To),
		sql.Named("asc", f.Ascending),
	}
}

// Write operations

// Insert adds a new app. A row with the same package name already present is
// left as is and no error is returned.
func (s *Store) Insert(ctx context.Context, app *App) error {
	args, err := appArgs(app)
	if err != nil {
		return err
	}

	query := `
		INSERT OR IGNORE INTO main_table (` + appColumns + `)
		VALUES (@package_name, @name, @icon_url, @dg_score, @total_dg_ratings, @mg_score,
			@total_mg_ratings, @ratings_list, @notes, @is_in_plexus_data, @is_installed,
			@installed_version, @installed_build, @installed_from, @is_fav)
	`

	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return wrapErr(err, "failed to insert app %s", app.PackageName)
	}
	return nil
}

// Update replaces every column of the row keyed by app.PackageName.
func (s *Store) Update(ctx context.Context, app *App) error {
	args, err := appArgs(app)
	if err != nil {
		return err
	}

	query := `
		UPDATE main_table SET
			name = @name,
			icon_url = @icon_url,
			dg_score = @dg_score,
			total_dg_ratings = @total_dg_ratings,
			mg_score = @mg_score,
			total_mg_ratings = @total_mg_ratings,
			ratings_list = @ratings_list,
			notes = @notes,
			is_in_plexus_data = @is_in_plexus_data,
			is_installed = @is_installed,
			installed_version = @installed_version,
			installed_build = @installed_build,
			installed_from = @installed_from,
			is_fav = @is_fav
		WHERE package_name = @package_name
	`

	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return wrapErr(err, "failed to update app %s", app.PackageName)
	}
	return nil
}

// Delete removes the row keyed by app.PackageName.
func (s *Store) Delete(ctx context.Context, app *App) error {
	query := `DELETE FROM main_table WHERE package_name = ?`
	if _, err := s.q.ExecContext(ctx, query, app.PackageName); err != nil {
		return wrapErr(err, "failed to delete app %s", app.PackageName)
	}
	return nil
}

// UpsertFromRemote merges an entry of the remote rating dataset. New rows are
// flagged as present in the remote dataset; existing rows get their remote
// fields overwritten and keep everything the device scan owns. A nil Ratings
// list leaves the stored ratings alone, since dataset entries carry none.
func (s *Store) UpsertFromRemote(ctx context.Context, app *App) error {
	return s.InTx(ctx, func(tx *Store) error {
		existing, err := tx.GetAppByPackage(ctx, app.PackageName)
		if err != nil {
			return err
		}

		if existing == nil {
			fresh := *app
			fresh.IsInPlexusData = true
			return tx.Insert(ctx, &fresh)
		}

		existing.Name = app.Name
		existing.PackageName = app.PackageName
		existing.IconURL = app.IconURL
		existing.DgScore = app.DgScore
		existing.TotalDgRatings = app.TotalDgRatings
		existing.MgScore = app.MgScore
		existing.TotalMgRatings = app.TotalMgRatings
		if app.Ratings != nil {
			existing.Ratings = app.Ratings
		}
		existing.IsInPlexusData = true
		return tx.Update(ctx, existing)
	})
}

// UpsertFromInstalledScan merges an app found on the device. New rows are
// flagged as absent from the remote dataset; existing rows only get their
// installed fields overwritten.
func (s *Store) UpsertFromInstalledScan(ctx context.Context, app *App) error {
	return s.InTx(ctx, func(tx *Store) error {
		existing, err := tx.GetAppByPackage(ctx, app.PackageName)
		if err != nil {
			return err
		}

		if existing == nil {
			fresh := *app
			fresh.IsInPlexusData = false
			return tx.Insert(ctx, &fresh)
		}

		existing.InstalledVersion = app.InstalledVersion
		existing.InstalledBuild = app.InstalledBuild
		existing.IsInstalled = app.IsInstalled
		existing.InstalledFrom = app.InstalledFrom
		return tx.Update(ctx, existing)
	})
}

// SetFavorite copies app.IsFav onto the stored row. It is a no-op when the
// package is not stored.
func (s *Store) SetFavorite(ctx context.Context, app *App) error {
	return s.InTx(ctx, func(tx *Store) error {
		existing, err := tx.GetAppByPackage(ctx, app.PackageName)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		existing.IsFav = app.IsFav
		return tx.Update(ctx, existing)
	})
}

// SetRatings replaces the ratings list of a stored app. It reports whether a
// row was found.
func (s *Store) SetRatings(ctx context.Context, packageName string, ratings []Rating) (bool, error) {
	found := false
	err := s.InTx(ctx, func(tx *Store) error {
		existing, err := tx.GetAppByPackage(ctx, packageName)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		found = true
		existing.Ratings = ratings
		return tx.Update(ctx, existing)
	})
	return found, err
}

// Lookups by package

// GetAppByPackage returns the app with the given package name, or nil if
// there is none.
func (s *Store) GetAppByPackage(ctx context.Context, packageName string) (*App, error) {
	return s.getOne(ctx, `WHERE package_name = ?`, packageName)
}

// GetNotInstalledAppByPackage is GetAppByPackage restricted to apps that are
// not installed.
func (s *Store) GetNotInstalledAppByPackage(ctx context.Context, packageName string) (*App, error) {
	return s.getOne(ctx, `WHERE package_name = ? AND NOT is_installed`, packageName)
}

// GetInstalledAppByPackage is GetAppByPackage restricted to installed apps.
func (s *Store) GetInstalledAppByPackage(ctx context.Context, packageName string) (*App, error) {
	return s.getOne(ctx, `WHERE package_name = ? AND is_installed`, packageName)
}

// GetFavoriteAppByPackage is GetAppByPackage restricted to favorites.
func (s *Store) GetFavoriteAppByPackage(ctx context.Context, packageName string) (*App, error) {
	return s.getOne(ctx, `WHERE package_name = ? AND is_fav`, packageName)
}

func (s *Store) getOne(ctx context.Context, where string, packageName string) (*App, error) {
	query := `SELECT ` + appColumns + ` FROM main_table ` + where
	app, err := scanApp(s.q.QueryRowContext(ctx, query, packageName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get app %s", packageName)
	}
	return app, nil
}

// Lists

// ListNotInstalled returns every app that is not installed.
func (s *Store) ListNotInstalled(ctx context.Context) ([]*App, error) {
	return s.list(ctx, "not installed apps", `WHERE NOT is_installed`)
}

// ListInstalled returns every installed app.
func (s *Store) ListInstalled(ctx context.Context) ([]*App, error) {
	return s.list(ctx, "installed apps", `WHERE is_installed`)
}

// ListFavorites returns every favorite.
func (s *Store) ListFavorites(ctx context.Context) ([]*App, error) {
	return s.list(ctx, "favorites", `WHERE is_fav`)
}

// ListInPlexusData returns every app flagged as present in the remote dataset.
func (s *Store) ListInPlexusData(ctx context.Context) ([]*App, error) {
	return s.list(ctx, "remote dataset apps", `WHERE is_in_plexus_data`)
}

// ListSortedNotInstalled returns apps that are not installed, filtered by
// score and sorted by name. f.InstalledFrom is ignored.
func (s *Store) ListSortedNotInstalled(ctx context.Context, f Filter) ([]*App, error) {
	return s.list(ctx, "sorted not installed apps",
		`WHERE NOT is_installed`+scoreFilter+nameOrder, filterArgs(f)...)
}

// ListSortedInstalled returns installed apps filtered by install source and
// score, sorted by name.
func (s *Store) ListSortedInstalled(ctx context.Context, f Filter) ([]*App, error) {
	return s.list(ctx, "sorted installed apps",
		`WHERE is_installed
		AND (installed_from = @installed_from OR @installed_from = '')`+scoreFilter+nameOrder,
		filterArgs(f)...)
}

// ListSortedFavorites returns favorites filtered by install source and score,
// sorted by name.
func (s *Store) ListSortedFavorites(ctx context.Context, f Filter) ([]*App, error) {
	return s.list(ctx, "sorted favorites",
		`WHERE is_fav
		AND (installed_from = @installed_from OR @installed_from = '')`+scoreFilter+nameOrder,
		filterArgs(f)...)
}

// Search returns apps whose name or package name contains query, ignoring
// ASCII case, sorted by name.
func (s *Store) Search(ctx context.Context, query string) ([]*App, error) {
	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	return s.list(ctx, "search results",
		`WHERE name LIKE @q ESCAPE '\' OR package_name LIKE @q ESCAPE '\' ORDER BY name`,
		sql.Named("q", pattern))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *Store) list(ctx context.Context, what, where string, args ...any) ([]*App, error) {
	query := `SELECT ` + appColumns + ` FROM main_table ` + where

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "failed to list %s", what)
	}
	defer rows.Close()

	var apps []*App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan app row: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", what, err)
	}

	return apps, nil
}

// Counts returns row totals per provenance flag.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(is_in_plexus_data), 0),
			COALESCE(SUM(is_installed), 0),
			COALESCE(SUM(is_fav), 0),
			COALESCE(SUM(is_installed AND NOT is_in_plexus_data), 0)
		FROM main_table
	`

	var c Counts
	err := s.q.QueryRowContext(ctx, query).Scan(&c.Total, &c.InPlexus, &c.Installed, &c.Favorites, &c.InstallOnly)
	if err != nil {
		return Counts{}, wrapErr(err, "failed to count apps")
	}
	return c, nil
}
