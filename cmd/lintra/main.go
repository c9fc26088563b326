package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
	"github.com/gabrielrodrigueslb/lintra/internal/config"
	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/db"
	"github.com/gabrielrodrigueslb/lintra/internal/logging"
	"github.com/gabrielrodrigueslb/lintra/internal/repository"
	"github.com/gabrielrodrigueslb/lintra/internal/store"
	"github.com/gabrielrodrigueslb/lintra/internal/tui"
	"github.com/gabrielrodrigueslb/lintra/internal/tui/screens"
)

var rootCmd = &cobra.Command{
	Use:   "lintra",
	Short: "Terminal CRM panel",
	Long:  `Lintra manages deals, sales funnels and contacts of a Lintra CRM server from the terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := setup()
		if err != nil {
			fail("Error", err)
		}
		defer app.close()

		// Open database (migrations run on every start)
		database, err := db.OpenAndMigrate()
		if err != nil {
			fail("Error opening database", err)
		}
		defer database.Close()

		deps := &screens.Deps{
			Client:      app.client,
			Tasks:       repository.NewTaskRepo(database),
			Journal:     repository.NewSyncEventRepo(database),
			Config:      app.cfg,
			Log:         app.log,
			SessionPath: app.sessionPath,
			Alerts:      &screens.Alerts{},
		}
		deps.Sync = app.service(crmsync.WithJournal(deps.Journal))

		// Launch TUI
		if err := tui.Run(deps); err != nil {
			fail("Error", err)
		}
	},
}

var funnelsCmd = &cobra.Command{
	Use:   "funnels",
	Short: "List sales funnels and their stages",
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("output")
		app := mustSetup()
		defer app.close()

		ctx, cancel := app.requestContext()
		defer cancel()
		svc := app.service()
		if err := svc.LoadFunnels(ctx); err != nil {
			fail("Error", err)
		}
		if err := writeFunnels(os.Stdout, out, svc.Store().Funnels()); err != nil {
			fail("Error", err)
		}
	},
}

var dealsCmd = &cobra.Command{
	Use:   "deals <funnel-id>",
	Short: "List the deals of a funnel",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("output")
		app := mustSetup()
		defer app.close()

		ctx, cancel := app.requestContext()
		defer cancel()
		svc := app.service()
		if err := svc.LoadFunnels(ctx); err != nil {
			fail("Error", err)
		}
		funnel, ok := svc.Store().Funnel(args[0])
		if !ok {
			fail("Error", fmt.Errorf("funnel %s not found", args[0]))
		}
		if _, err := svc.LoadDeals(ctx, funnel.ID); err != nil {
			fail("Error", err)
		}
		if err := writeDeals(os.Stdout, out, funnel, svc.Store().FunnelDeals(funnel.ID)); err != nil {
			fail("Error", err)
		}
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <deal-id> <stage-id>",
	Short: "Move a deal to another stage",
	Long: `Move a deal to another stage, the same way dropping a card on the board does.

Examples:
  lintra move 42 7              # Stage 7 of the deal's funnel
  lintra move 42 7 --funnel 3   # Stage 7 of funnel 3`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		funnelID, _ := cmd.Flags().GetString("funnel")
		app := mustSetup()
		defer app.close()

		ctx, cancel := app.requestContext()
		defer cancel()
		svc := app.service()
		if err := loadAllDeals(ctx, svc); err != nil {
			fail("Error", err)
		}

		op, err := svc.MoveDeal(args[0], args[1], funnelID)
		if err != nil {
			crmsync.Alert(stderrAlerter{}, err, crmsync.MsgMoveDeal)
			os.Exit(1)
		}
		if err := op.Sync(ctx); err != nil {
			crmsync.Alert(stderrAlerter{}, err, crmsync.MsgMoveDeal)
			os.Exit(1)
		}

		d, _ := svc.Store().Deal(args[0])
		stage := d.Stage
		if f, ok := svc.Store().Funnel(d.FunnelID); ok {
			if s, ok := f.StageByID(d.Stage); ok {
				stage = s.Name
			}
		}
		fmt.Printf("Moved %s to %s\n", d.Title, stage)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		app := mustSetup()
		defer app.close()

		in := bufio.NewReader(os.Stdin)
		if email == "" {
			email = prompt(in, "Email: ")
		}
		if password == "" {
			password = prompt(in, "Password: ")
		}

		ctx, cancel := app.requestContext()
		defer cancel()
		if err := app.client.Login(ctx, api.Credentials{Email: email, Password: password}); err != nil {
			fail("Login failed", errors.New(crmsync.AlertMessage(err, "invalid credentials")))
		}
		if err := app.client.SaveSession(app.sessionPath); err != nil {
			fail("Error saving session", err)
		}
		user, err := app.client.Me(ctx)
		if err != nil {
			fail("Error", err)
		}
		fmt.Printf("Signed in as %s\n", user.Name)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustSetup()
		defer app.close()

		ctx, cancel := app.requestContext()
		defer cancel()
		if err := app.client.Logout(ctx); err != nil {
			app.log.Warn("logout failed", zap.Error(err))
		}
		if err := api.ClearSession(app.sessionPath); err != nil {
			fail("Error", err)
		}
		fmt.Println("Signed out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	Run: func(cmd *cobra.Command, args []string) {
		app := mustSetup()
		defer app.close()

		ctx, cancel := app.requestContext()
		defer cancel()
		user, err := app.client.Me(ctx)
		if errors.Is(err, api.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "Not signed in. Run 'lintra login'.")
			os.Exit(1)
		}
		if err != nil {
			fail("Error", err)
		}
		fmt.Printf("%s <%s>\n", user.Name, user.Email)
	},
}

func init() {
	funnelsCmd.Flags().StringP("output", "o", "table", "Output format: table, yaml or json")
	dealsCmd.Flags().StringP("output", "o", "table", "Output format: table, yaml or json")
	moveCmd.Flags().String("funnel", "", "Target funnel (default: the deal's funnel)")
	loginCmd.Flags().String("email", "", "Account email (prompted when empty)")
	loginCmd.Flags().String("password", "", "Account password (prompted when empty)")

	rootCmd.AddCommand(funnelsCmd)
	rootCmd.AddCommand(dealsCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs: config, logger and an API client
// carrying the stored session.
type app struct {
	cfg         *config.Config
	log         *zap.Logger
	client      *api.Client
	sessionPath string
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logPath, err := config.LogPath()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logPath, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	client, err := api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout.Duration),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	sessionPath, err := config.SessionPath()
	if err != nil {
		return nil, err
	}
	if err := client.LoadSession(sessionPath); err != nil {
		log.Warn("ignoring unreadable session", zap.Error(err))
	}

	return &app{cfg: cfg, log: log, client: client, sessionPath: sessionPath}, nil
}

func mustSetup() *app {
	a, err := setup()
	if err != nil {
		fail("Error", err)
	}
	return a
}

func (a *app) service(opts ...crmsync.Option) *crmsync.Service {
	opts = append([]crmsync.Option{
		crmsync.WithRollback(a.cfg.RollbackOnFailure),
		crmsync.WithLogger(a.log),
	}, opts...)
	return crmsync.New(store.New(), a.client, opts...)
}

func (a *app) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout.Duration)
}

func (a *app) close() {
	_ = a.log.Sync()
}

// loadAllDeals fetches every funnel and then the deals of each in parallel.
func loadAllDeals(ctx context.Context, svc *crmsync.Service) error {
	if err := svc.LoadFunnels(ctx); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range svc.Store().Funnels() {
		f := f
		g.Go(func() error {
			_, err := svc.LoadDeals(gctx, f.ID)
			return err
		})
	}
	return g.Wait()
}

// stderrAlerter is the CLI's blocking alert: the message goes to stderr and
// the command exits.
type stderrAlerter struct{}

func (stderrAlerter) Alert(message string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Fprint(os.Stderr, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func fail(prefix string, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		fmt.Fprintln(os.Stderr, "Session expired or missing. Run 'lintra login'.")
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	os.Exit(1)
}
