// Command activitylog consumes feed and friendship events from RabbitMQ and
// writes one structured log line per event.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/logging"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	log := logging.New(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"))

	url := os.Getenv("AMQP_URL")
	if url == "" {
		log.Fatal("AMQP_URL environment variable is required")
	}

	consumer := &events.Consumer{
		URL:      url,
		Exchange: getEnv("AMQP_EXCHANGE", "socialpedia.events"),
		Queue:    getEnv("AMQP_QUEUE", "socialpedia.activitylog"),
		Log:      log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"exchange": consumer.Exchange,
		"queue":    consumer.Queue,
	}).Info("activity log consuming")

	if err := consumer.Run(ctx, logEvent(log)); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("consumer stopped")
	}
	log.Info("activity log stopped")
}

func logEvent(log logrus.FieldLogger) events.Handler {
	return func(_ context.Context, ev events.Event) error {
		fields := logrus.Fields{
			"event":       ev.Type,
			"actor_id":    ev.ActorID,
			"subject_id":  ev.SubjectID,
			"occurred_at": ev.OccurredAt,
		}
		if ev.Post != nil {
			fields["post_author"] = ev.Post.UserID
			fields["likes"] = len(ev.Post.Likes)
		}
		log.WithFields(fields).Info("activity")
		return nil
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
