// Command tennisctl is the Tennis Tracker operations CLI.
//
// Usage:
//
//	tennisctl users create --username anna --email anna@example.com
//	tennisctl users list
//	tennisctl digest --user <id>
//	tennisctl notify --user <id> --message "test delivery"
//	tennisctl tick
//	tennisctl history list --limit 20
//	tennisctl history prune --days 30
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fernkoch/tennis-tracker/internal/config"
	"github.com/fernkoch/tennis-tracker/internal/notify"
	"github.com/fernkoch/tennis-tracker/internal/scheduler"
	"github.com/fernkoch/tennis-tracker/internal/store"
	"github.com/fernkoch/tennis-tracker/internal/tennis"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "tennisctl",
		Short: "Tennis Tracker operations CLI",
	}

	root.AddCommand(usersCmd())
	root.AddCommand(digestCmd())
	root.AddCommand(notifyCmd())
	root.AddCommand(tickCmd())
	root.AddCommand(historyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// env bundles the wired application pieces the commands operate on.
type env struct {
	cfg        *config.Config
	users      *store.UserStore
	history    *store.NotificationStore
	source     *tennis.CachedSource
	dispatcher *notify.Dispatcher
}

// run handles config loading, store setup, and context cancellation.
func run(fn func(ctx context.Context, e *env) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	users, err := store.NewUserStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	history, err := store.NewNotificationStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open notification store: %w", err)
	}

	client := tennis.NewClient(cfg.TennisAPIBaseURL, cfg.TennisAPIKey, cfg.TennisAPIRPM, logger)
	source := tennis.NewCachedSource(client, cfg.CacheEnabled, cfg.CacheTTL)

	push := notify.NewPushoverClient("", cfg.PushoverAppToken, logger)
	mailer := notify.NewMailer(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword, cfg.EmailFrom)
	dispatcher := notify.NewDispatcher(source, history, push, mailer, logger)

	return fn(ctx, &env{
		cfg:        cfg,
		users:      users,
		history:    history,
		source:     source,
		dispatcher: dispatcher,
	})
}

// requireUser loads a user or fails the command.
func requireUser(e *env, userID string) (*store.Preferences, error) {
	if userID == "" {
		return nil, fmt.Errorf("--user is required")
	}
	prefs, err := e.users.Get(userID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, fmt.Errorf("no user with id %s", userID)
	}
	return prefs, nil
}

// --------------------------------------------------------------------------
// users command
// --------------------------------------------------------------------------

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(usersCreateCmd())
	cmd.AddCommand(usersListCmd())
	return cmd
}

func usersCreateCmd() *cobra.Command {
	var username, email, password, pushoverKey string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with default preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				if username == "" || email == "" {
					return fmt.Errorf("--username and --email are required")
				}
				existing, err := e.users.GetByEmail(email)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("email %s already has an account (%s)", email, existing.UserID)
				}

				userID := uuid.NewString()
				prefs, err := e.users.CreateDefaults(userID, username)
				if err != nil {
					return err
				}
				prefs.Email = email
				if pushoverKey != "" {
					prefs.PushoverKey = pushoverKey
					prefs.NotificationType = store.ChannelPushover
				}
				if err := e.users.Save(prefs); err != nil {
					return err
				}
				if password != "" {
					if err := e.users.SetPassword(userID, password); err != nil {
						return err
					}
				}
				logger.Info("user created", "user_id", userID, "username", username, "email", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Optional password")
	cmd.Flags().StringVar(&pushoverKey, "pushover-key", "", "Optional Pushover user key (switches channel to pushover)")
	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				ids, err := e.users.ListIDs()
				if err != nil {
					return err
				}
				for _, id := range ids {
					prefs, err := e.users.Get(id)
					if err != nil || prefs == nil {
						fmt.Printf("%s  (unreadable)\n", id)
						continue
					}
					fmt.Printf("%s  %s <%s>  channel=%s favorites=%d\n",
						prefs.UserID, prefs.Username, prefs.Email,
						prefs.NotificationType, len(prefs.FavoritePlayerIDs))
				}
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// digest / notify / tick commands
// --------------------------------------------------------------------------

func digestCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send the daily schedule digest to one user now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				prefs, err := requireUser(e, userID)
				if err != nil {
					return err
				}
				start := time.Now()
				if err := e.dispatcher.SendDailySchedule(ctx, prefs); err != nil {
					return err
				}
				logger.Info("digest sent", "user_id", userID, "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	return cmd
}

func notifyCmd() *cobra.Command {
	var userID, message string
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification on a user's configured channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				prefs, err := requireUser(e, userID)
				if err != nil {
					return err
				}
				if message == "" {
					message = "Test notification from tennisctl"
				}
				n := store.Notification{
					Type:      "test",
					Message:   message,
					Timestamp: time.Now(),
				}
				if err := e.dispatcher.Send(ctx, prefs, n); err != nil {
					return err
				}
				logger.Info("test notification delivered", "user_id", userID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&message, "message", "", "Message body")
	return cmd
}

func tickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduler evaluation pass at the current time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				sched := scheduler.New(e.users, e.dispatcher, e.source, logger)
				start := time.Now()
				sched.Tick(ctx, time.Now())
				logger.Info("tick finished", "duration", time.Since(start).Round(time.Millisecond))
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// history command
// --------------------------------------------------------------------------

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune the notification history log",
	}
	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyPruneCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int
	var matchID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded delivery attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				var entries []store.HistoryEntry
				var err error
				if matchID != "" {
					entries, err = e.history.ByMatch(matchID)
				} else {
					entries, err = e.history.Recent(limit)
				}
				if err != nil {
					return err
				}
				for _, entry := range entries {
					fmt.Printf("%s  %-7s  %-15s  %s\n",
						entry.CreatedAt.Format(time.RFC3339),
						entry.Status, entry.Notification.Type,
						entry.Notification.Message)
				}
				fmt.Printf("%d entries\n", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the newest N entries (0 = all)")
	cmd.Flags().StringVar(&matchID, "match", "", "Filter by match ID")
	return cmd
}

func historyPruneCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop history entries older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, e *env) error {
				if days < 1 {
					return fmt.Errorf("--days must be at least 1")
				}
				removed, err := e.history.PruneOlderThan(time.Duration(days) * 24 * time.Hour)
				if err != nil {
					return err
				}
				logger.Info("history pruned", "removed", removed, "days", days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Age cutoff in days")
	return cmd
}
