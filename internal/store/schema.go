package store

const schema = `
CREATE TABLE IF NOT EXISTS main_table (
    package_name TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    icon_url TEXT NOT NULL DEFAULT '',
    dg_score REAL NOT NULL DEFAULT 0,
    total_dg_ratings INTEGER NOT NULL DEFAULT 0,
    mg_score REAL NOT NULL DEFAULT 0,
    total_mg_ratings INTEGER NOT NULL DEFAULT 0,
    ratings_list TEXT NOT NULL DEFAULT '[]',
    notes TEXT,
    is_in_plexus_data BOOLEAN NOT NULL DEFAULT 1,
    is_installed BOOLEAN NOT NULL DEFAULT 0,
    installed_version TEXT NOT NULL DEFAULT '',
    installed_build INTEGER NOT NULL DEFAULT 0,
    installed_from TEXT NOT NULL DEFAULT '',
    is_fav BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_main_installed ON main_table(is_installed);
CREATE INDEX IF NOT EXISTS idx_main_fav ON main_table(is_fav);
CREATE INDEX IF NOT EXISTS idx_main_dg_score ON main_table(dg_score);
CREATE INDEX IF NOT EXISTS idx_main_mg_score ON main_table(mg_score);
CREATE INDEX IF NOT EXISTS idx_main_name ON main_table(name);
`
