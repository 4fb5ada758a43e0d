package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/frontdesk-api/internal/bootstrap"
	"github.com/jwalitptl/frontdesk-api/pkg/messaging"
	"github.com/jwalitptl/frontdesk-api/pkg/messaging/redis"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail events published by the outbox worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, _ := cmd.Flags().GetString("channel")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := bootstrap.NewLogger(cfg)

			broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), &logger.ZL)
			if err != nil {
				return err
			}
			defer broker.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = messaging.Consume(ctx, broker, channel, func(_ context.Context, msg messaging.Message) error {
				_, err := fmt.Fprintf(out, "%s\t%s\t%s\n", msg.ID, msg.Type, msg.Payload)
				return err
			}, func(err error) {
				logger.Warn("Skipping message", "channel", channel, "error", err.Error())
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("channel", messaging.ChannelReceipts, "broker channel to subscribe to")
	return cmd
}
