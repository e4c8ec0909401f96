package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Runner executa Task imediatamente, a cada Interval e a cada Trigger.
// Erros da tarefa são registrados e nunca param o loop.
type Runner struct {
	Name     string
	Interval time.Duration
	Task     func(context.Context) error
	Log      *zap.Logger

	trigger chan struct{}
}

func NewRunner(log *zap.Logger, name string, interval time.Duration, task func(context.Context) error) *Runner {
	return &Runner{
		Name:     name,
		Interval: interval,
		Task:     task,
		Log:      log,
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger pede uma execução extra sem bloquear; pedidos repetidos antes da
// execução se fundem em um só.
func (r *Runner) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run bloqueia até o contexto ser cancelado
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.Log.Info("runner started", zap.String("task", r.Name), zap.Duration("interval", r.Interval))
	r.run(ctx, "startup")

	for {
		select {
		case <-ctx.Done():
			r.Log.Info("runner stopped", zap.String("task", r.Name))
			return
		case <-ticker.C:
			r.run(ctx, "tick")
		case <-r.trigger:
			r.run(ctx, "trigger")
		}
	}
}

func (r *Runner) run(ctx context.Context, reason string) {
	if err := r.Task(ctx); err != nil && ctx.Err() == nil {
		r.Log.Warn("task failed", zap.String("task", r.Name), zap.String("reason", reason), zap.Error(err))
	}
}
