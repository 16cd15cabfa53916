package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// MessageHandler processes one inbound event. *conversation.Controller
// satisfies it.
type MessageHandler interface {
	Handle(ctx context.Context, evt domain.InboundEvent) (domain.Reply, error)
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	handler MessageHandler
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handler MessageHandler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
		Logger: newAsynqLogger(log),
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		handler: handler,
		log:     log,
	}

	mux.HandleFunc(TaskInboundMessage, w.handleInboundMessage)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleInboundMessage(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInboundMessagePayload(task)
	if err != nil {
		w.log.Warn("discarding malformed inbound message task", "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	// Handle only fails when the sender's lock cannot be taken; anything
	// else has already been answered to the sender.
	if _, err := w.handler.Handle(ctx, payload.Event); err != nil {
		return err
	}
	return nil
}

// asynqLogger routes asynq's internal logging through the application logger.
type asynqLogger struct {
	log *slog.Logger
}

func newAsynqLogger(log *logger.Logger) asynq.Logger {
	return asynqLogger{log: log.With(slog.String("component", "asynq"))}
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Error(fmt.Sprint(args...)) }
