package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"shadowagent/core"
)

// SQLiteThreatStorage implements ThreatStorage using SQLite
type SQLiteThreatStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteThreatStorage creates a new SQLite-based threat storage
func NewSQLiteThreatStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteThreatStorage {
	return &SQLiteThreatStorage{
		sqlite: sqlite,
		logger: logger,
	}
}

// CreateThreat inserts the threat and its nested alerts in one transaction.
// Either everything commits or nothing does: a failed alert batch must not
// leave behind an alert-less threat.
func (sts *SQLiteThreatStorage) CreateThreat(ctx context.Context, threat *core.Threat) error {
	now := time.Now().UTC().Truncate(time.Second)
	threat.DiscoveredAt = now

	err := sts.sqlite.WithTransaction(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO threats (type, title, description, source, discovered_at)
			 VALUES (?, ?, ?, ?, ?)`,
			string(threat.Type),
			threat.Title,
			nullableString(threat.Description),
			nullableString(threat.Source),
			now.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert threat: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get threat id: %w", err)
		}
		threat.ID = id

		for i := range threat.Alerts {
			alert := &threat.Alerts[i]
			alert.ThreatID = id
			alert.Timestamp = now

			res, err := tx.ExecContext(ctx,
				`INSERT INTO alerts (threat_id, severity, message, timestamp)
				 VALUES (?, ?, ?, ?)`,
				id, alert.Severity, alert.Message, now.Format(time.RFC3339),
			)
			if err != nil {
				return fmt.Errorf("failed to insert alert: %w", err)
			}
			alert.ID, err = res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get alert id: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if threat.Alerts == nil {
		threat.Alerts = []core.Alert{}
	}

	sts.logger.Infow("Created threat",
		"threat_id", threat.ID,
		"type", threat.Type,
		"alerts", len(threat.Alerts))
	return nil
}

// GetThreat retrieves a single threat by id, including its alerts.
func (sts *SQLiteThreatStorage) GetThreat(ctx context.Context, id int64) (*core.Threat, error) {
	row := sts.sqlite.ReadDB.QueryRowContext(ctx,
		`SELECT id, type, title, description, source, discovered_at
		 FROM threats WHERE id = ?`, id)

	threat, err := scanThreat(row)
	if err == sql.ErrNoRows {
		return nil, ErrThreatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get threat: %w", err)
	}

	alerts, err := sts.alertsForThreats(ctx, []int64{threat.ID})
	if err != nil {
		return nil, err
	}
	threat.Alerts = alerts[threat.ID]
	if threat.Alerts == nil {
		threat.Alerts = []core.Alert{}
	}

	return threat, nil
}

// ListThreats returns a page of threats in id order with their alerts.
func (sts *SQLiteThreatStorage) ListThreats(ctx context.Context, skip, limit int) ([]core.Threat, error) {
	rows, err := sts.sqlite.ReadDB.QueryContext(ctx,
		`SELECT id, type, title, description, source, discovered_at
		 FROM threats ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query threats: %w", err)
	}
	defer rows.Close()

	threats := []core.Threat{}
	ids := []int64{}
	for rows.Next() {
		threat, err := scanThreat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan threat: %w", err)
		}
		threats = append(threats, *threat)
		ids = append(ids, threat.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threats: %w", err)
	}

	if len(ids) == 0 {
		return threats, nil
	}

	alerts, err := sts.alertsForThreats(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range threats {
		threats[i].Alerts = alerts[threats[i].ID]
		if threats[i].Alerts == nil {
			threats[i].Alerts = []core.Alert{}
		}
	}

	return threats, nil
}

// DeleteThreat removes a threat. The alerts table has ON DELETE CASCADE on
// threat_id, so no orphan alerts survive.
func (sts *SQLiteThreatStorage) DeleteThreat(ctx context.Context, id int64) error {
	res, err := sts.sqlite.DB.ExecContext(ctx, "DELETE FROM threats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete threat: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrThreatNotFound
	}

	sts.logger.Infow("Deleted threat", "threat_id", id)
	return nil
}

// CreateAlert attaches a new alert to an existing threat.
func (sts *SQLiteThreatStorage) CreateAlert(ctx context.Context, threatID int64, alert *core.Alert) error {
	// Early exit for a clean not-found error; the FK constraint still backs
	// this up against a concurrent delete.
	var exists int
	err := sts.sqlite.ReadDB.QueryRowContext(ctx,
		"SELECT 1 FROM threats WHERE id = ?", threatID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrThreatNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check threat: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	alert.ThreatID = threatID
	alert.Timestamp = now

	res, err := sts.sqlite.DB.ExecContext(ctx,
		`INSERT INTO alerts (threat_id, severity, message, timestamp)
		 VALUES (?, ?, ?, ?)`,
		threatID, alert.Severity, alert.Message, now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ErrThreatNotFound
		}
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	alert.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get alert id: %w", err)
	}

	sts.logger.Infow("Created alert",
		"alert_id", alert.ID,
		"threat_id", threatID,
		"severity", alert.Severity)
	return nil
}

// ListAlerts returns a page of alerts across all threats in id order.
func (sts *SQLiteThreatStorage) ListAlerts(ctx context.Context, skip, limit int) ([]core.Alert, error) {
	rows, err := sts.sqlite.ReadDB.QueryContext(ctx,
		`SELECT id, threat_id, severity, message, timestamp
		 FROM alerts ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []core.Alert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}

// alertsForThreats loads the alerts for a set of threat ids keyed by threat.
func (sts *SQLiteThreatStorage) alertsForThreats(ctx context.Context, ids []int64) (map[int64][]core.Alert, error) {
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT id, threat_id, severity, message, timestamp
		 FROM alerts WHERE threat_id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ", "))

	rows, err := sts.sqlite.ReadDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	result := make(map[int64][]core.Alert)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		result[alert.ThreatID] = append(result[alert.ThreatID], *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return result, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanThreat(row rowScanner) (*core.Threat, error) {
	var threat core.Threat
	var threatType, discoveredAt string
	var description, source sql.NullString

	err := row.Scan(&threat.ID, &threatType, &threat.Title, &description, &source, &discoveredAt)
	if err != nil {
		return nil, err
	}

	threat.Type = core.ThreatType(threatType)
	threat.Description = description.String
	threat.Source = source.String
	threat.DiscoveredAt, _ = time.Parse(time.RFC3339, discoveredAt)

	return &threat, nil
}

func scanAlert(row rowScanner) (*core.Alert, error) {
	var alert core.Alert
	var timestamp string

	err := row.Scan(&alert.ID, &alert.ThreatID, &alert.Severity, &alert.Message, &timestamp)
	if err != nil {
		return nil, err
	}

	alert.Timestamp, _ = time.Parse(time.RFC3339, timestamp)

	return &alert, nil
}

// nullableString maps "" to NULL so optional text columns stay NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
