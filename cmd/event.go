package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/attendance-management/internal/core/events"
	"github.com/frahmantamala/attendance-management/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish sample domain events through the notifier to check webhook delivery`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample event",
	Long:      `Publish a sample event on a local bus wired to the configured notifier webhook`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeRequestSubmitted, events.EventTypeRequestDecided, events.EventTypeInfoRequestResolved},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(cmd.Context(), args[0])
	},
}

var eventUserID int64

func sampleEvent(eventType string, userID int64) (events.Event, error) {
	switch eventType {
	case events.EventTypeRequestSubmitted:
		today := time.Now().Format(time.DateOnly)
		return events.NewRequestSubmittedEvent(0, userID, nil, "ATTENDANCE", today, today), nil
	case events.EventTypeRequestDecided:
		return events.NewRequestDecidedEvent(0, userID, 0, "APPROVED", "", 0), nil
	case events.EventTypeInfoRequestResolved:
		return events.NewInfoRequestResolvedEvent(0, userID, 0), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishTestEvent(ctx context.Context, eventType string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.Configure(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	event, err := sampleEvent(eventType, eventUserID)
	if err != nil {
		return err
	}
	if cfg.Notifier.WebhookURL == "" {
		lg.Warn("notifier webhook is not configured; the event will be dropped")
	}

	eventBus := events.NewEventBus(lg)
	n := newNotifier(cfg.Notifier, lg)
	n.Subscribe(eventBus)

	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())
	if err := eventBus.PublishSync(ctx, event); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Notifier.Timeout*time.Duration(cfg.Notifier.MaxRetries+1)+5*time.Second)
	defer cancel()
	if err := n.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("notifier did not drain: %w", err)
	}

	lg.Info("sample event delivered to notifier")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "user id carried by the sample event")

	eventCmd.AddCommand(publishEventCmd)
}
