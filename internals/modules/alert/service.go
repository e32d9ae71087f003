package alert

import (
	"context"
	"sync"
	"time"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/rs/zerolog"
)

const deliveryTimeout = 10 * time.Second

// AlertService decouples alert delivery from check processing: Send only
// enqueues, a fixed pool of workers drains the queue into the downstream
// notifier. Delivery failures are logged by the workers.
type AlertService struct {
	// lifecycle
	workerCount int
	workerWG    sync.WaitGroup
	closeOnce   sync.Once
	mu          sync.RWMutex
	closed      bool

	// channels
	alertChan chan Message

	// delivery
	notifier Notifier

	// misc
	logger *zerolog.Logger
}

func NewAlertService(workerCount, queueSize int, notifier Notifier, logger *zerolog.Logger) *AlertService {
	if workerCount < 1 {
		workerCount = 1
	}
	return &AlertService{
		workerCount: workerCount,
		alertChan:   make(chan Message, queueSize),
		notifier:    notifier,
		logger:      logger,
	}
}

// Start starts the Alert Service workers
func (s *AlertService) Start() {

	s.workerWG.Add(s.workerCount)

	for range s.workerCount {
		go s.handleAlerts()
	}
}

// Send enqueues msg without blocking. It fails when the queue is full or
// the service has been closed.
func (s *AlertService) Send(ctx context.Context, msg Message) error {
	const op = "alert.service.send"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return &apperror.Error{Kind: apperror.Internal, Op: op, Message: "alert service closed"}
	}

	select {
	case s.alertChan <- msg:
		return nil
	default:
		return &apperror.Error{Kind: apperror.Dependency, Op: op, Message: "alert queue full"}
	}
}

func (s *AlertService) handleAlerts() {
	defer s.workerWG.Done()

	for msg := range s.alertChan {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		err := s.notifier.Send(ctx, msg)
		cancel()

		if err != nil {
			s.logger.Error().
				Err(err).
				Str("owner_id", msg.OwnerID).
				Str("check_id", msg.CheckID).
				Str("state", msg.State).
				Msg("alert delivery failed")
			continue
		}

		s.logger.Debug().Str("check_id", msg.CheckID).Msg("alert delivered")
	}
}

// Close stops accepting alerts and waits until the queued ones are delivered
// or ctx expires.
func (s *AlertService) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.alertChan)
		s.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
