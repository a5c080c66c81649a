package keychain

import (
	"log/slog"

	"github.com/benaskins/credstore/internal/audit"
)

// AuditedBackend wraps a Backend and records every primitive to an audit log.
type AuditedBackend struct {
	inner  Backend
	audit  *audit.Logger
	actor  string // "cli" or "app"
	logger *slog.Logger
}

// NewAuditedBackend wraps an existing backend with audit logging.
func NewAuditedBackend(inner Backend, auditLog *audit.Logger, actor string) *AuditedBackend {
	return &AuditedBackend{
		inner:  inner,
		audit:  auditLog,
		actor:  actor,
		logger: slog.With("component", "keychain-audit"),
	}
}

func (b *AuditedBackend) Add(q Query) Status {
	status := b.inner.Add(q)
	b.record(audit.ActionSecretWrite, q, status)
	return status
}

func (b *AuditedBackend) CopyMatching(q Query) (Status, []Item) {
	status, items := b.inner.CopyMatching(q)
	action := audit.ActionSecretRead
	if _, ok := q.Account(); !ok {
		action = audit.ActionSecretList
	}
	b.record(action, q, status)
	return status, items
}

func (b *AuditedBackend) Delete(q Query) Status {
	status := b.inner.Delete(q)
	b.record(audit.ActionSecretDelete, q, status)
	return status
}

func (b *AuditedBackend) record(action audit.Action, q Query, status Status) {
	entry := audit.Entry{
		Action: action,
		Actor:  b.actor,
		Status: status.String(),
	}
	entry.Key, _ = q.Account()
	entry.Service, _ = q.Service()
	entry.Group, _ = q.AccessGroup()
	if status != StatusSuccess && status != StatusItemNotFound {
		entry.Error = status.Err().Error()
	}

	// Audit logging is best-effort: a failure to log should not block the operation.
	if err := b.audit.Log(entry); err != nil {
		b.logger.Warn("audit log write failed", "action", action, "error", err)
	}
}
