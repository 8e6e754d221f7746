package store

// Migrate creates the necessary tables and indexes if they don't exist.
func (s *SQLiteStore) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create schema version table
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS graph_schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM graph_schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	// Apply migrations
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Graph},
		{2, migrationV2Traces},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return err
		}

		if _, err := tx.Exec("INSERT INTO graph_schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

const migrationV1Graph = `
CREATE TABLE IF NOT EXISTS pillar_levels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	domain_type TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	pillar_level_id TEXT NOT NULL REFERENCES pillar_levels(id),
	axis_values TEXT NOT NULL DEFAULT '{}',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_pillar ON nodes(pillar_level_id);
CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label);

CREATE TABLE IF NOT EXISTS edges (
	id TEXT PRIMARY KEY,
	from_node_id TEXT NOT NULL REFERENCES nodes(id),
	to_node_id TEXT NOT NULL REFERENCES nodes(id),
	relation_type TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_node_id);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_node_id);

CREATE TABLE IF NOT EXISTS agents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	domain_coverage TEXT NOT NULL DEFAULT '[]',
	algorithms_available TEXT NOT NULL DEFAULT '[]',
	confidence_thresholds TEXT NOT NULL DEFAULT '{}',
	capabilities TEXT NOT NULL DEFAULT '[]',
	state TEXT NOT NULL DEFAULT 'idle',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const migrationV2Traces = `
CREATE TABLE IF NOT EXISTS agent_traces (
	agent_id TEXT PRIMARY KEY REFERENCES agents(id),
	trace TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL
);
`
