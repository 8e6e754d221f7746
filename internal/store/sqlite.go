package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nexus-ukg/nexus/pkg/models"
)

// SQLiteStore is the default KnowledgeStore implementation.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

var _ KnowledgeStore = (*SQLiteStore)(nil)

// DefaultDBPath returns the path to the default graph database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "nexus", "graph.db")
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
// It creates parent directories, enables WAL mode and foreign keys.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: conn, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// GetNode returns the node with the given ID, or ErrNotFound.
func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, description, pillar_level_id, axis_values, created_at, updated_at
		FROM nodes WHERE id = ?
	`, id)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}
	return node, nil
}

// GetNeighbors returns nodes reachable from id by one outgoing edge.
func (s *SQLiteStore) GetNeighbors(ctx context.Context, id string) ([]models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.label, n.description, n.pillar_level_id, n.axis_values, n.created_at, n.updated_at
		FROM nodes n
		JOIN edges e ON e.to_node_id = n.id
		WHERE e.from_node_id = ?
		ORDER BY n.label
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get neighbors of %s: %w", id, err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

// SaveNode inserts or replaces a node.
func (s *SQLiteStore) SaveNode(ctx context.Context, node *models.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveNode(ctx, s.db, node)
}

// CreateEdge inserts an edge.
func (s *SQLiteStore) CreateEdge(ctx context.Context, edge *models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createEdge(ctx, s.db, edge)
}

// ListAgents returns all persisted agent profiles.
func (s *SQLiteStore) ListAgents(ctx context.Context) ([]models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, domain_coverage, algorithms_available,
		       confidence_thresholds, capabilities, state, created_at, updated_at
		FROM agents ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []models.Agent
	for rows.Next() {
		var (
			a          models.Agent
			coverage   string
			algorithms string
			thresholds string
			caps       string
			state      string
		)
		if err := rows.Scan(&a.ID, &a.Name, &coverage, &algorithms, &thresholds, &caps, &state, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		if err := json.Unmarshal([]byte(coverage), &a.DomainCoverage); err != nil {
			return nil, fmt.Errorf("decode domain coverage for %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(algorithms), &a.AlgorithmsAvailable); err != nil {
			return nil, fmt.Errorf("decode algorithms for %s: %w", a.ID, err)
		}
		if thresholds != "" {
			if err := json.Unmarshal([]byte(thresholds), &a.ConfidenceThresholds); err != nil {
				return nil, fmt.Errorf("decode thresholds for %s: %w", a.ID, err)
			}
		}
		if caps != "" {
			if err := json.Unmarshal([]byte(caps), &a.Capabilities); err != nil {
				return nil, fmt.Errorf("decode capabilities for %s: %w", a.ID, err)
			}
		}
		a.State = models.AgentState(state)
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// SaveAgent inserts or replaces an agent profile.
func (s *SQLiteStore) SaveAgent(ctx context.Context, a *models.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coverage, err := json.Marshal(a.DomainCoverage)
	if err != nil {
		return fmt.Errorf("encode domain coverage: %w", err)
	}
	algorithms, err := json.Marshal(a.AlgorithmsAvailable)
	if err != nil {
		return fmt.Errorf("encode algorithms: %w", err)
	}
	thresholds, err := json.Marshal(a.ConfidenceThresholds)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}
	caps, err := json.Marshal(a.Capabilities)
	if err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}

	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.State == "" {
		a.State = models.AgentStateIdle
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO agents
			(id, name, domain_coverage, algorithms_available, confidence_thresholds,
			 capabilities, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, string(coverage), string(algorithms), string(thresholds),
		string(caps), string(a.State), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save agent %s: %w", a.ID, err)
	}
	return nil
}

// ListPillarLevels returns all domain classification entries.
func (s *SQLiteStore) ListPillarLevels(ctx context.Context) ([]models.PillarLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, domain_type FROM pillar_levels ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list pillar levels: %w", err)
	}
	defer rows.Close()

	var pillars []models.PillarLevel
	for rows.Next() {
		var p models.PillarLevel
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.DomainType); err != nil {
			return nil, fmt.Errorf("scan pillar level: %w", err)
		}
		pillars = append(pillars, p)
	}
	return pillars, rows.Err()
}

// SavePillarLevel inserts or replaces a pillar level.
func (s *SQLiteStore) SavePillarLevel(ctx context.Context, p *models.PillarLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pillar_levels (id, name, description, domain_type)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, p.DomainType)
	if err != nil {
		return fmt.Errorf("save pillar level %s: %w", p.ID, err)
	}
	return nil
}

// SaveAgentTrace persists an agent's trace log, replacing any previous one.
func (s *SQLiteStore) SaveAgentTrace(ctx context.Context, agentID string, trace []*models.ProcessingResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("encode trace for %s: %w", agentID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO agent_traces (agent_id, trace, updated_at)
		VALUES (?, ?, ?)
	`, agentID, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save trace for %s: %w", agentID, err)
	}
	return nil
}

// GetAgentTrace returns an agent's persisted trace log, or nil when absent.
func (s *SQLiteStore) GetAgentTrace(ctx context.Context, agentID string) ([]*models.ProcessingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT trace FROM agent_traces WHERE agent_id = ?`, agentID).Scan(&encoded)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trace for %s: %w", agentID, err)
	}

	var trace []*models.ProcessingResult
	if err := json.Unmarshal([]byte(encoded), &trace); err != nil {
		return nil, fmt.Errorf("decode trace for %s: %w", agentID, err)
	}
	return trace, nil
}

// ApplyBatch runs fn inside one transaction. Everything written through the
// BatchWriter commits together; any error from fn rolls the batch back.
func (s *SQLiteStore) ApplyBatch(ctx context.Context, fn func(BatchWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}

	if err := fn(&txWriter{ctx: ctx, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// txWriter applies graph mutations through an open transaction.
type txWriter struct {
	ctx context.Context
	tx  *sql.Tx
}

func (w *txWriter) SaveNode(node *models.Node) error {
	return saveNode(w.ctx, w.tx, node)
}

func (w *txWriter) CreateEdge(edge *models.Edge) error {
	return createEdge(w.ctx, w.tx, edge)
}

func (w *txWriter) UpdateAxisValues(nodeID string, updates map[string]models.AxisData) error {
	row := w.tx.QueryRowContext(w.ctx, `
		SELECT id, label, description, pillar_level_id, axis_values, created_at, updated_at
		FROM nodes WHERE id = ?
	`, nodeID)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return fmt.Errorf("node %s: %w", nodeID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get node %s: %w", nodeID, err)
	}

	if node.AxisValues == nil {
		node.AxisValues = make(map[string]models.AxisData)
	}
	for name, data := range updates {
		node.AxisValues[name] = data
	}
	return saveNode(w.ctx, w.tx, node)
}

// execer abstracts *sql.DB and *sql.Tx for shared write helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveNode(ctx context.Context, db execer, node *models.Node) error {
	axisValues, err := json.Marshal(node.AxisValues)
	if err != nil {
		return fmt.Errorf("encode axis values: %w", err)
	}

	now := time.Now().UTC()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	_, err = db.ExecContext(ctx, `
		INSERT OR REPLACE INTO nodes
			(id, label, description, pillar_level_id, axis_values, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, node.ID, node.Label, node.Description, node.PillarLevelID,
		string(axisValues), node.CreatedAt, node.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save node %s: %w", node.ID, err)
	}
	return nil
}

func createEdge(ctx context.Context, db execer, edge *models.Edge) error {
	if edge.CreatedAt.IsZero() {
		edge.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO edges (id, from_node_id, to_node_id, relation_type, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, edge.ID, edge.FromNodeID, edge.ToNodeID, edge.RelationType, edge.Confidence, edge.CreatedAt)
	if err != nil {
		return fmt.Errorf("create edge %s: %w", edge.ID, err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*models.Node, error) {
	var (
		node       models.Node
		axisValues string
	)
	err := row.Scan(&node.ID, &node.Label, &node.Description, &node.PillarLevelID,
		&axisValues, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if axisValues != "" {
		if err := json.Unmarshal([]byte(axisValues), &node.AxisValues); err != nil {
			return nil, fmt.Errorf("decode axis values: %w", err)
		}
	}
	return &node, nil
}
