// The audit worker consumes state-change events from the broker and
// appends them as JSON lines to the audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finsight/internal/config"
	"finsight/internal/events"
	"finsight/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("worker stopped", log.FieldOperation, log.OpShutdown)
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	sink, err := newAuditSink(cfg.AuditLogPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	logger.Info("audit worker started",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue,
		"audit_log", cfg.AuditLogPath)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.ConsumeStateChanged(ctx, func(msg *events.StateChangedMessage) error {
			if err := sink.Append(msg); err != nil {
				return err
			}
			logger.Info("audit event recorded",
				log.FieldUserID, msg.UserID,
				log.FieldOperation, msg.Kind,
				log.FieldEntity, msg.Entity)
			return nil
		})
	})
	return g.Wait()
}

// auditSink appends one JSON line per event to the audit log file.
type auditSink struct {
	mu   sync.Mutex
	file *os.File
}

func newAuditSink(path string) (*auditSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &auditSink{file: file}, nil
}

func (s *auditSink) Append(msg *events.StateChangedMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return s.file.Sync()
}

func (s *auditSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
