package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huutix/storefront/internal/kafka"
	"github.com/huutix/storefront/internal/repository"
)

// AuditManager batches admin-console audit entries and ships them to Kafka
// through a small worker pool. Entries that cannot be queued or sent are
// dumped to the log instead of being dropped silently.
type AuditManager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration

	producer kafka.Producer
	topic    string

	inputChan  chan repository.AuditLogPayload
	batchChan  chan []repository.AuditLogPayload
	shutdownCh chan struct{}
	once       sync.Once

	wg sync.WaitGroup
}

func NewAuditManager(workerCount, batchSize int, timeout time.Duration, producer kafka.Producer, topic string) *AuditManager {
	return &AuditManager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		producer:    producer,
		topic:       topic,
		inputChan:   make(chan repository.AuditLogPayload, workerCount*batchSize*2),
		batchChan:   make(chan []repository.AuditLogPayload, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	zap.S().Info("starting audit manager")
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}

	go m.monitorShutdown(ctx)
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		zap.S().Info("initiating audit manager shutdown")
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			zap.S().Info("audit manager shutdown completed")
		case <-ctx.Done():
			zap.S().Warn("audit manager shutdown interrupted")
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	<-ctx.Done()
	m.Shutdown(context.Background())
}

func (m *AuditManager) LogEntry(ctx context.Context, entry repository.AuditLogPayload) {
	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emergencyLog(entry)
	}
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []repository.AuditLogPayload
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry, ok := <-m.inputChan:
			if !ok {
				return
			}

			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []repository.AuditLogPayload) {
	batchCopy := make([]repository.AuditLogPayload, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		m.publishBatch(context.Background(), batchCopy)
	}
}

func (m *AuditManager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			m.publishBatch(ctx, batch)
		case <-ctx.Done():
			// drain what is already queued before exiting
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					m.publishBatch(context.Background(), batch)
				default:
					return
				}
			}
		}
	}
}

func (m *AuditManager) publishBatch(ctx context.Context, batch []repository.AuditLogPayload) {
	for _, entry := range batch {
		payload, err := json.Marshal(entry)
		if err != nil {
			zap.S().Errorw("failed to marshal audit entry", "error", err)
			continue
		}
		if err := m.producer.SendMessage(ctx, m.topic, []byte(uuid.NewString()), payload); err != nil {
			zap.S().Errorw("failed to publish audit entry", "error", err, "handler", entry.Handler)
		}
	}
}

func (m *AuditManager) emergencyLog(entry repository.AuditLogPayload) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		zap.S().Errorw("failed to marshal emergency audit entry", "error", err)
		return
	}
	zap.S().Warnw("audit entry logged directly", "entry", string(entryJSON))
}
