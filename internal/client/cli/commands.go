package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/memoire/internal/client/api"
	appcommon "github.com/dmitrijs2005/memoire/internal/common"
)

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) createCommand() *cobra.Command {
	var name, unlock string

	cmd := &cobra.Command{
		Use:   "create --name NAME --unlock TIME FILE...",
		Short: "Upload files and print the unsigned create-vault transaction",
		Example: `  vaultctl create --name letters --unlock 2030-01-01T00:00:00Z a.txt b.jpg
  vaultctl create --name letters --unlock 1893456000 a.txt`,
		Args: cobra.RangeArgs(1, appcommon.MaxVaultFiles),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]api.File, 0, len(args))
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				files = append(files, api.File{Name: filepath.Base(p), Data: data})
			}

			res, err := a.client.CreateVault(cmd.Context(), name, unlock, files)
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "vault name: lowercase letters, digits and dashes")
	cmd.Flags().StringVar(&unlock, "unlock", "", "unlock time, ISO-8601 or unix seconds")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("unlock")
	return cmd
}

func (a *App) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status VAULT_ID",
		Short: "Show whether a vault is open and when it unlocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Open: %t\n", st.IsOpen)
			fmt.Fprintf(a.out, "Unlock time: %s\n", unlockText(st.UnlockTime))
			return nil
		},
	}
}

// unlockText appends the UTC calendar time when secs fits an int64.
func unlockText(secs string) string {
	n, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return secs
	}
	return fmt.Sprintf("%s (%s)", secs, time.Unix(n, 0).UTC().Format(time.RFC3339))
}

func (a *App) txCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tx VAULT_ID",
		Short: "Print the unsigned retrieve-vault transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := a.client.RetrieveTx(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(tx)
		},
	}
}

func (a *App) destroyTxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy-tx VAULT_ID",
		Short: "Print the unsigned destroy-vault transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := a.client.DestroyTx(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printJSON(tx)
		},
	}
}

func (a *App) cidsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cids TX_HASH",
		Short: "List the content ids released by a mined retrieve transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cids, err := a.client.CIDs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, c := range cids {
				fmt.Fprintln(a.out, c)
			}
			return nil
		},
	}
}

func (a *App) downloadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download TX_HASH",
		Short: "Download the files released by a mined retrieve transaction as a zip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := output
			if path == "" {
				path = "vault.zip"
			}

			f, err := os.CreateTemp(filepath.Dir(path), ".vaultctl-*.zip")
			if err != nil {
				return err
			}
			tmp := f.Name()
			defer os.Remove(tmp)

			rep, err := a.client.Download(cmd.Context(), args[0], f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			if output == "" && rep.FileName != "" {
				path = filepath.Join(filepath.Dir(path), filepath.Base(rep.FileName))
			}
			if err := os.Rename(tmp, path); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Saved %s (%d bytes)\n", path, rep.Bytes)
			fmt.Fprintf(a.out, "Included files: %s\n", orNone(rep.Included))
			if rep.Skipped != "" {
				fmt.Fprintf(a.errOut, "Warning: files at positions %s could not be fetched\n", rep.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: name suggested by the server)")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func (a *App) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list OWNER_ADDRESS",
		Short: "List the vaults owned by an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vaults, err := a.client.Vaults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(vaults) == 0 {
				fmt.Fprintln(a.out, "No vaults")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VAULT ID\tNAME")
			for _, v := range vaults {
				fmt.Fprintf(tw, "%s\t%s\n", v.VaultID, v.Name)
			}
			return tw.Flush()
		},
	}
}

func (a *App) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the vault service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is up\n", a.config.ServerURL)
			return nil
		},
	}
}
