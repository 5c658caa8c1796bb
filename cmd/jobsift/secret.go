package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobsift-engine/internal/secrets"
)

// Known keychain accounts by short name. IMAP uses a dynamic account derived
// from config, handled below.
var secretAccounts = map[string]string{
	"google": "jobsift:google",
	"openai": "jobsift:openai",
}

func newSecretCmd(flags *appFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage API keys and passwords in the OS keychain",
	}

	set := &cobra.Command{
		Use:   "set <google|openai|imap>",
		Short: "Store a secret (reads the value from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := resolveAccount(flags, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "value for %s: ", args[0])
			value, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return err
			}
			return secrets.Store(account, strings.TrimSpace(value))
		},
	}

	del := &cobra.Command{
		Use:   "delete <google|openai|imap>",
		Short: "Remove a secret from the keychain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := resolveAccount(flags, args[0])
			if err != nil {
				return err
			}
			return secrets.Delete(account)
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func resolveAccount(flags *appFlags, name string) (string, error) {
	if account, ok := secretAccounts[name]; ok {
		return account, nil
	}
	if name == "imap" {
		a, err := setup(flags)
		if err != nil {
			return "", err
		}
		defer a.close()
		return secrets.IMAPKeyringAccount(a.cfg.Alerts.Username, a.cfg.Alerts.IMAPHost), nil
	}
	return "", fmt.Errorf("unknown secret %q (want google, openai, or imap)", name)
}
