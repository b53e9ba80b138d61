package media

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/jfk9w-go/flu/syncf"
	"github.com/sirupsen/logrus"
)

// Manager processes media records in background workers.
// Operations share no mutable state, so jobs run in parallel
// bounded only by Concurrency.
type Manager struct {
	Service     *Service
	Concurrency int

	ctx    context.Context
	cancel func()
	work   syncf.WaitGroup
	sem    syncf.Locker
}

func (m *Manager) Init(ctx context.Context) {
	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.sem = syncf.Semaphore(syncf.DefaultClock, concurrency, 0)
}

// Close waits for submitted jobs to drain. Interruption is driven by
// the context passed to Init.
func (m *Manager) Close() error {
	m.work.Wait()
	m.cancel()
	return nil
}

// Submit schedules rendition processing for the record.
func (m *Manager) Submit(id uuid.UUID) {
	_, _ = syncf.GoWith(m.ctx, m.work.Spawn, func(ctx context.Context) {
		ctx, cancel := m.sem.Lock(ctx)
		defer cancel()
		if ctx.Err() != nil {
			return
		}

		log := logrus.WithField("id", id)
		media, err := m.Service.Get(ctx, id)
		if err != nil {
			log.Errorf("load media: %s", err)
			return
		}

		if err := m.Service.Process(ctx, media); err != nil {
			if syncf.IsContextRelated(err) {
				return
			}

			log.Errorf("process media: %s", err)
		}
	})
}
