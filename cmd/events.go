package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eaglebank/payment-instructions/shared/events"
	sharedredis "github.com/eaglebank/payment-instructions/shared/redis"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newEventsCmd(a *app) *cobra.Command {
	var group, consumer string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail processed instruction events from the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Redis.Addr == "" {
				return errors.New("redis.addr is not configured")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := sharedredis.NewClient(ctx, sharedredis.Options{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer client.Close()

			if consumer == "" {
				consumer, _ = os.Hostname()
			}
			subscriber := events.NewSubscriber(client.Client, a.logger, events.SubscriberConfig{
				Group:    group,
				Consumer: consumer,
				Stream:   a.cfg.Events.Stream,
				Handler:  printEvent,
			})

			pterm.Info.Printf("Listening on %s as %s/%s\n", a.cfg.Events.Stream, group, consumer)
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "payment-instructions-cli", "consumer group name")
	cmd.Flags().StringVar(&consumer, "consumer", "", "consumer name (defaults to the hostname)")

	return cmd
}

func printEvent(_ context.Context, event events.Event) error {
	if event.Type != events.PaymentInstructionProcessed {
		pterm.Debug.Printf("skipping %s event\n", event.Type)
		return nil
	}

	// Data arrives as a generic map after the envelope round trip.
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode event data: %w", err)
	}
	var ev events.PaymentInstructionProcessedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", event.Type, err)
	}

	line := fmt.Sprintf("%s %s %s %s", event.Timestamp.Format("2006-01-02T15:04:05Z07:00"), ev.InstructionID, ev.StatusCode, ev.Status)
	if ev.Type != "" {
		line += fmt.Sprintf(" | %s %d %s %s -> %s", ev.Type, ev.Amount, ev.Currency, ev.DebitAccount, ev.CreditAccount)
	}
	if ev.ExecuteBy != "" {
		line += " on " + ev.ExecuteBy
	}

	switch ev.Status {
	case "successful":
		pterm.Success.Println(line)
	case "pending":
		pterm.Info.Println(line)
	default:
		pterm.Warning.Println(line)
	}
	return nil
}
