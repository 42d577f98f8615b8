package gateway

import (
	"context"
	"time"

	"github.com/masteryodaa/openclaw-sdk-sub002/internal/gateway/protocol"
)

// Auditor receives a record of every operation an Audited gateway forwards.
// Implemented by tasklog.Store. Implementations must be best-effort: they
// are invoked on the caller's path and must never fail the traffic they
// observe.
type Auditor interface {
	RecordCall(method string, params map[string]any, callErr error, duration time.Duration)
	RecordLifecycle(action, detail string, err error)
}

// Lifecycle action names passed to Auditor.RecordLifecycle.
const (
	AuditConnect    = "connect"
	AuditDisconnect = "disconnect"
	AuditSubscribe  = "subscribe"
)

// Audited decorates a Gateway with traffic auditing. It forwards every
// operation unchanged; the audit record is a side effect.
type Audited struct {
	inner   Gateway
	auditor Auditor
}

var _ Gateway = (*Audited)(nil)

// NewAudited wraps inner so every operation is recorded to auditor.
func NewAudited(inner Gateway, auditor Auditor) *Audited {
	return &Audited{inner: inner, auditor: auditor}
}

func (a *Audited) Connect(ctx context.Context) error {
	err := a.inner.Connect(ctx)
	a.auditor.RecordLifecycle(AuditConnect, "", err)
	return err
}

func (a *Audited) Close() error {
	err := a.inner.Close()
	a.auditor.RecordLifecycle(AuditDisconnect, "", err)
	return err
}

func (a *Audited) Health(ctx context.Context) HealthStatus {
	return a.inner.Health(ctx)
}

func (a *Audited) Call(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	start := time.Now()
	result, err := a.inner.Call(ctx, method, params)
	a.auditor.RecordCall(method, params, err, time.Since(start))
	return result, err
}

func (a *Audited) Subscribe(ctx context.Context, types ...protocol.EventType) (*Subscription, error) {
	sub, err := a.inner.Subscribe(ctx, types...)
	detail := ""
	for i, t := range types {
		if i > 0 {
			detail += ","
		}
		detail += string(t)
	}
	a.auditor.RecordLifecycle(AuditSubscribe, detail, err)
	return sub, err
}
