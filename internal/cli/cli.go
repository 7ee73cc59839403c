package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schedflow/schedflow/internal/calendar"
	"github.com/schedflow/schedflow/internal/directory"
	internal_http "github.com/schedflow/schedflow/internal/http"
	"github.com/schedflow/schedflow/internal/log"
	"github.com/schedflow/schedflow/internal/mail"
	internal_storage "github.com/schedflow/schedflow/internal/storage"
	"github.com/schedflow/schedflow/pkg/gcal"
	"github.com/schedflow/schedflow/pkg/models"
	"github.com/schedflow/schedflow/pkg/service"
)

func SetupCLI(rootCmd *cobra.Command) {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "List scheduling tasks (CLI)",
		Run: func(cmd *cobra.Command, args []string) {
			status, err := cmd.Flags().GetString("status")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving status flag: %v", err)
				os.Exit(1)
			}
			store := initStore(stringSetting(cmd, "db"))
			defer store.Close()
			listTasks(store, models.TaskStatus(status))
		},
	}
	tasksCmd.Flags().String("status", string(models.WaitingForSlotStatus), "Task status to filter by")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP entry point and the background reply poller",
		Run: func(cmd *cobra.Command, args []string) {
			eng, err := buildEngine(cmd)
			if err != nil {
				log.GetLogger().Errorf("Failed to build engine: %v", err)
				os.Exit(1)
			}
			defer eng.store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := eng.poller.Start(ctx); err != nil {
				log.GetLogger().Errorf("Failed to start poller: %v", err)
				os.Exit(1)
			}

			if err := internal_http.StartServer(stringSetting(cmd, "port"), eng.sched, eng.inbox); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}
	serveCmd.Flags().String("port", "8080", "HTTP listen port")
	addEngineFlags(serveCmd)

	pollCmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a single reply-poll cycle and exit",
		Run: func(cmd *cobra.Command, args []string) {
			eng, err := buildEngine(cmd)
			if err != nil {
				log.GetLogger().Errorf("Failed to build engine: %v", err)
				os.Exit(1)
			}
			defer eng.store.Close()

			if err := eng.poller.RunCycle(context.Background()); err != nil {
				log.GetLogger().Errorf("Poll cycle failed: %v", err)
				os.Exit(1)
			}
			fmt.Fprintln(os.Stdout, "Poll cycle completed.")
		},
	}
	addEngineFlags(pollCmd)

	contactsCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the contact directory",
	}
	contactsAddCmd := &cobra.Command{
		Use:   "add <name> <email>",
		Short: "Remember a name-to-address association",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			db, err := connectDB(stringSetting(cmd, "db"))
			if err != nil {
				log.GetLogger().Errorf("Failed to connect: %v", err)
				os.Exit(1)
			}
			defer db.Close()

			if err := directory.New(db).Remember(context.Background(), args[0], args[1]); err != nil {
				log.GetLogger().Errorf("Failed to remember contact: %v", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Remembered %s -> %s\n", args[0], args[1])
		},
	}
	contactsCmd.AddCommand(contactsAddCmd)

	rootCmd.AddCommand(tasksCmd, serveCmd, pollCmd, contactsCmd)
}

// addEngineFlags registers the knobs shared by every command that drives
// the full engine.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("poll-interval", service.DefaultPollInterval, "Delay between reply-poll cycles")
	cmd.Flags().String("smtp-host", "localhost", "SMTP relay host")
	cmd.Flags().Int("smtp-port", 587, "SMTP relay port")
	cmd.Flags().String("smtp-username", "", "SMTP username")
	cmd.Flags().String("smtp-password", "", "SMTP password")
	cmd.Flags().String("smtp-from", "scheduler@localhost", "From address for availability emails")
	cmd.Flags().Int("horizon-days", 3, "Days of availability offered")
	cmd.Flags().String("timezone", "America/Los_Angeles", "Operating timezone for created events")
	cmd.Flags().String("token", "", "Access token for upstream collaborators, if any")
}

// engine bundles everything a long-running command needs.
type engine struct {
	store  *internal_storage.PostgresStore
	sched  *service.Scheduler
	poller *service.Poller
	inbox  *mail.Inbox
}

func buildEngine(cmd *cobra.Command) (*engine, error) {
	dsn := stringSetting(cmd, "db")
	if dsn == "" {
		return nil, errors.New("no database connection string (use --db or SCHEDFLOW_DB)")
	}
	db, err := connectDB(dsn)
	if err != nil {
		return nil, err
	}

	inbox := mail.NewInbox(db)
	sender := mail.NewSMTPSender(
		stringSetting(cmd, "smtp-host"),
		intSetting(cmd, "smtp-port"),
		stringSetting(cmd, "smtp-username"),
		stringSetting(cmd, "smtp-password"),
		stringSetting(cmd, "smtp-from"),
	)
	cal := calendar.New(db)

	creds := gcal.LocalCredentials()
	if token := stringSetting(cmd, "token"); token != "" {
		creds = gcal.StaticCredentials(token)
	}

	store := internal_storage.NewPostgresStoreWithDB(db)
	sched := service.NewScheduler(store, service.Collaborators{
		Mail:     inbox.WrapSender(sender),
		Threads:  inbox,
		FreeBusy: cal,
		Events:   cal,
		Contacts: directory.New(db),
		Creds:    creds,
	}, service.Config{
		HorizonDays: intSetting(cmd, "horizon-days"),
		Timezone:    stringSetting(cmd, "timezone"),
	}, log.GetLogger())

	poller := service.NewPoller(sched, durationSetting(cmd, "poll-interval"), log.GetLogger())
	return &engine{store: store, sched: sched, poller: poller, inbox: inbox}, nil
}

func connectDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to database")
	}
	return db, nil
}

// Settings resolve flag-first, then the SCHEDFLOW_* environment via viper,
// then the flag default.

func stringSetting(cmd *cobra.Command, name string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	if v := viper.GetString(name); v != "" {
		return v
	}
	v, _ := cmd.Flags().GetString(name)
	return v
}

func intSetting(cmd *cobra.Command, name string) int {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetInt(name)
		return v
	}
	if v := viper.GetInt(name); v != 0 {
		return v
	}
	v, _ := cmd.Flags().GetInt(name)
	return v
}

func durationSetting(cmd *cobra.Command, name string) time.Duration {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetDuration(name)
		return v
	}
	if v := viper.GetDuration(name); v != 0 {
		return v
	}
	v, _ := cmd.Flags().GetDuration(name)
	return v
}

func listTasks(store *internal_storage.PostgresStore, status models.TaskStatus) {
	tasks, err := store.ListTasksByStatus(status)
	if err != nil {
		log.GetLogger().Errorf("Failed to list tasks: %v", err)
		fmt.Fprintf(os.Stderr, "Error: failed to list tasks: %v\n", err)
		os.Exit(1)
	}
	if len(tasks) == 0 {
		fmt.Fprintf(os.Stdout, "No tasks found.\n")
		return
	}
	fmt.Fprintf(os.Stdout, "Tasks:\n")
	for _, t := range tasks {
		summary := ""
		if t.Params.OriginalArgs != nil {
			summary = t.Params.OriginalArgs.Summary
		}
		fmt.Fprintf(os.Stdout, "- ID: %s, Status: %s, Summary: %q, Thread: %s, Created: %s\n",
			t.ID, t.Status, summary, t.Params.ThreadID, t.CreatedAt.Format(time.RFC3339))
	}
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
