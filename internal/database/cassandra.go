package database

import (
	"fmt"
	"time"

	"votes-service/internal/config"

	"github.com/gocql/gocql"
)

// NewCassandraSession connects to the ledger cluster and ensures the voting
// keyspace and tables exist. Schema statements are idempotent
// (IF NOT EXISTS everywhere) so concurrent service instances can start
// in any order.
func NewCassandraSession(cfg *config.CassandraConfig) (*gocql.Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Port = cfg.Port
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: cfg.NumRetries}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cassandra: %w", err)
	}

	if err := migrateLedgerSchema(session, cfg.Keyspace, cfg.Replication); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to migrate ledger schema: %w", err)
	}
	session.Close()

	// Reconnect scoped to the keyspace for the ledger repositories.
	cluster.Keyspace = cfg.Keyspace
	keyspaceSession, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open keyspace session: %w", err)
	}
	return keyspaceSession, nil
}

func migrateLedgerSchema(session *gocql.Session, keyspace string, replication int) error {
	stmts := []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
			WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': %d}
			AND durable_writes = true`, keyspace, replication),

		// Primary vote record, immutable once written.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.votes (
			vote_id      uuid PRIMARY KEY,
			candidate_id uuid,
			election_id  uuid,
			voted_at     timestamp,
			vote_hash    text,
			metadata     text
		)`, keyspace),

		// Denormalized per-candidate index for reporting scans.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.votes_by_candidate (
			candidate_id uuid,
			election_id  uuid,
			vote_id      uuid,
			voted_at     timestamp,
			PRIMARY KEY ((candidate_id), election_id, vote_id)
		) WITH CLUSTERING ORDER BY (election_id ASC, vote_id ASC)`, keyspace),

		// One row per (user, election); row existence is the durable proof
		// that the user voted.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.user_vote_log (
			user_id      uuid,
			election_id  uuid,
			vote_id      uuid,
			candidate_id uuid,
			voted_at     timestamp,
			PRIMARY KEY ((user_id), election_id)
		)`, keyspace),
	}

	for _, stmt := range stmts {
		if err := session.Query(stmt).Consistency(gocql.All).Exec(); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}

	// Schema agreement can lag behind DDL on multi-node clusters.
	time.Sleep(200 * time.Millisecond)
	return nil
}
