package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ISMendys/alexa-gemini/credentials"
	"github.com/ISMendys/alexa-gemini/token"
	"github.com/spf13/cobra"
)

func tokensCmd() *cobra.Command {
	tokens := &cobra.Command{Use: "tokens", Short: "Stored credential operations"}

	tokens.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List linked users",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			creds, err := store.List()
			if err != nil {
				return err
			}
			return printCredentials(creds, time.Now())
		},
	})

	tokens.AddCommand(&cobra.Command{
		Use:   "revoke USER_ID",
		Short: "Forget a user's credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			deleted, err := store.Delete(args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no credential stored for %s", args[0])
			}
			if err := credentials.Persist(store); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "revoked %s\n", args[0])
			return nil
		},
	})

	return tokens
}

func printCredentials(creds []credentials.UserCredential, now time.Time) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "USER\tEMAIL\tEXPIRY\tREFRESHABLE\tSTATUS")
	for _, c := range creds {
		expiry := "never"
		if !c.Expiry.IsZero() {
			expiry = c.Expiry.Format(time.RFC3339)
		}
		status := "ok"
		switch {
		case c.Dead(now):
			status = "relink required"
		case c.Expired(now):
			status = "expired"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", c.UserID, c.Email, expiry, c.CanRefresh(), status)
	}
	return w.Flush()
}

func adminTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for the credential admin endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			raw, err := token.NewAdminIssuer(cfg).Issue(subject, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, raw)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "admin", "Token subject")
	cmd.Flags().DurationVarP(&ttl, "ttl", "t", token.DefaultTTL, "Token lifetime")
	return cmd
}
