/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/voicescript/apiserver/config"
	"github.com/voicescript/apiserver/internal/events"
	"golang.org/x/sync/errgroup"
)

// eventsCmd represents the events command.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Domain event utilities",
}

// eventsListenCmd consumes the note and feedback event channels and
// logs each message. Useful for verifying broker wiring and as a
// template for real consumers.
var eventsListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Consume domain events and log them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		publisher, err := newEventsPublisher(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if publisher == nil {
			return fmt.Errorf("no events backend configured; set EVENTS_BACKEND")
		}
		defer func() {
			_ = publisher.Close()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Subscribe blocks until the context ends, so each channel
		// gets its own goroutine.
		group, ctx := errgroup.WithContext(ctx)
		for _, channel := range []string{events.ChannelNoteCreated, events.ChannelFeedbackCreated} {
			channel := channel
			logger.Info("listening", "channel", channel)
			group.Go(func() error {
				err := publisher.Subscribe(ctx, channel, func(ctx context.Context, msg events.Message) error {
					var payload map[string]any
					if err := json.Unmarshal(msg.Data, &payload); err != nil {
						logger.Error("undecodable event", "channel", channel, "id", msg.ID, "error", err)
						return nil
					}
					logger.Info("event received", "channel", channel, "id", msg.ID, "payload", payload)
					return nil
				})
				if err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("subscribe %s: %w", channel, err)
				}
				return nil
			})
		}

		err = group.Wait()
		logger.Info("shutting down")
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsListenCmd)
}

func newEventsPublisher(ctx context.Context, cfg config.Config) (*events.Publisher, error) {
	switch cfg.Events.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := events.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return events.NewPublisher(backend), nil
	case "pubsub":
		backend, err := events.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return events.NewPublisher(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}
