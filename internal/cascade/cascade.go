// Package cascade выполняет побочные эффекты после фиксации основной транзакции.
// Ошибки шагов логируются и считаются, но никогда не возвращаются вызывающему.
// Go запускает шаги в фоне, поэтому ответ на запрос не ждет брокеров и хранилища.
package cascade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rajivgeraev/barterhub/internal/metrics"
)

const stepTimeout = 5 * time.Second

// Step один побочный эффект
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner выполняет шаги по порядку и учитывает фоновые каскады
type Runner struct {
	log     logrus.FieldLogger
	pending sync.WaitGroup
}

// NewRunner создает Runner
func NewRunner(log logrus.FieldLogger) *Runner {
	return &Runner{log: log}
}

// Run выполняет все шаги и возвращает количество неудачных.
// Шаги не наследуют отмену контекста запроса.
func (r *Runner) Run(ctx context.Context, fields logrus.Fields, steps ...Step) int {
	base := context.WithoutCancel(ctx)
	failed := 0

	for _, step := range steps {
		if err := r.runStep(base, step); err != nil {
			failed++
			metrics.CascadeFailures.WithLabelValues(step.Name).Inc()
			r.log.WithFields(fields).WithField("step", step.Name).WithError(err).
				Warn("побочный эффект не выполнен")
		}
	}

	return failed
}

// Go выполняет шаги в отдельной горутине и сразу возвращает управление.
// Шаги одного вызова идут по порядку; разные вызовы не упорядочены между собой.
func (r *Runner) Go(fields logrus.Fields, steps ...Step) {
	if len(steps) == 0 {
		return
	}

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		r.Run(context.Background(), fields, steps...)
	}()
}

// Wait блокируется до завершения всех каскадов, запущенных через Go
func (r *Runner) Wait() {
	r.pending.Wait()
}

// Shutdown ждет фоновые каскады, но не дольше ctx
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cascade shutdown: %w", ctx.Err())
	}
}

func (r *Runner) runStep(ctx context.Context, step Step) (err error) {
	ctx, cancel := context.WithTimeout(ctx, stepTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	return step.Run(ctx)
}
