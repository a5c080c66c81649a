package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benaskins/credstore/internal/keychain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var setCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Store a secret, replacing any existing value",
	Long:  "Store a secret. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	store, cfg, closeFn, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeFn()
	key := args[0]

	accessibility, err := cfg.AccessibilityLevel()
	if err != nil {
		return err
	}
	if name, _ := cmd.Flags().GetString("accessibility"); name != "" {
		if accessibility, err = keychain.ParseAccessibility(name); err != nil {
			return err
		}
	}

	var value string
	if len(args) == 2 {
		value = args[1]
	} else if value, err = readSecret(cmd); err != nil {
		return err
	}

	removed := false
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		var structured any
		if err := json.Unmarshal([]byte(value), &structured); err != nil {
			return fmt.Errorf("value is not valid JSON: %w", err)
		}
		// A JSON null removes the secret rather than storing a placeholder.
		opt := keychain.Some(structured)
		if structured == nil {
			opt = keychain.None[any]()
			removed = true
		}
		err = keychain.Save(store, opt, key, accessibility)
	} else {
		err = keychain.Save(store, keychain.Some(value), key, accessibility)
	}
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Secret %q deleted\n", key)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Secret %q stored\n", key)
	return nil
}

// readSecret prompts on a terminal or reads piped stdin.
func readSecret(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Enter secret value: ")
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeFn, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		out := cmd.OutOrStdout()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			val, ok, err := keychain.Value[any](store, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("secret %q not found", args[0])
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(val)
		}

		val, ok, err := keychain.Value[string](store, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("secret %q not found", args[0])
		}
		fmt.Fprintln(out, val)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List all secret keys in scope",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeFn, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		keys, err := store.AllKeys()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No secrets stored")
			return nil
		}

		if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
			for _, k := range keys {
				fmt.Fprintln(out, k)
			}
			return nil
		}

		header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cell := lipgloss.NewStyle().Padding(0, 1)
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("KEY").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return header
				}
				return cell
			})
		for _, k := range keys {
			t.Row(k)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Short:   "Remove a secret",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, closeFn, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Secret %q deleted\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every secret in scope",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("refusing to clear without --yes")
		}
		store, cfg, closeFn, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := store.Clear(); err != nil {
			return err
		}
		scope := cfg.Service
		if cfg.AccessGroup != "" {
			scope += " / " + cfg.AccessGroup
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared all secrets in %s\n", scope)
		return nil
	},
}

func init() {
	setCmd.Flags().String("accessibility", "", "When the secret may be read (default from config)")
	setCmd.Flags().Bool("json", false, "Parse the value as JSON and store it structured")
	getCmd.Flags().Bool("json", false, "Decode the stored value as JSON")
	clearCmd.Flags().Bool("yes", false, "Confirm removing every secret in scope")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
}
