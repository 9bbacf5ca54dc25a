package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/memoire/internal/client/api"
	"github.com/dmitrijs2005/memoire/internal/client/config"
)

// App holds what every subcommand needs once flags are parsed.
type App struct {
	config *config.Config
	client *api.Client
	out    io.Writer
	errOut io.Writer
}

// NewRootCommand builds the vaultctl command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	app := &App{out: out, errOut: errOut}

	var (
		configPath string
		server     string
		timeout    time.Duration
	)

	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Command line client for the memoire vault service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("server") {
				cfg.ServerURL = server
			}
			if flags.Changed("timeout") {
				cfg.Timeout = timeout
			}
			app.config = cfg
			app.client = api.New(cfg.ServerURL, &http.Client{Timeout: cfg.Timeout})
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	pf.StringVar(&server, "server", "http://localhost:3001", "vault service base URL")
	pf.DurationVar(&timeout, "timeout", 5*time.Minute, "request timeout")

	root.AddCommand(
		app.createCommand(),
		app.statusCommand(),
		app.txCommand(),
		app.destroyTxCommand(),
		app.cidsCommand(),
		app.downloadCommand(),
		app.listCommand(),
		app.pingCommand(),
	)

	return root
}

// Execute runs vaultctl with args and returns the process exit code.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(out, errOut)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.RequestID != "" {
			fmt.Fprintln(errOut, "Request ID:", apiErr.RequestID)
		}
		return 1
	}
	return 0
}
