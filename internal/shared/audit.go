package shared

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Audit actions recorded against sales orders.
const (
	ActionStatusTransition = "order.status_transition"
	ActionAutoTransition   = "order.auto_transition"
	ActionFieldEdit        = "order.field_edit"
	ActionOrderDeleted     = "order.deleted"
)

// AuditEntityOrder is the entity name used for order audit rows.
const AuditEntityOrder = "sales_order"

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// OrderAudit builds an audit row for an order.
func OrderAudit(actorID, orderID int64, action string, meta map[string]any) AuditLog {
	return AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   AuditEntityOrder,
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
		At:       time.Now().UTC(),
	}
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if err := log.validate(); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

func (log AuditLog) validate() error {
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	return nil
}
