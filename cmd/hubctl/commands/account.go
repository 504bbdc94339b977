package commands

import (
	"errors"
	"fmt"

	"mediahub/internal/query"
	"mediahub/lib/hub"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var accountMax int

func init() {
	accountCmd.PersistentFlags().IntVarP(&accountMax, "max", "n", 20, "Maximum number of entries, 0 lists everything.")
	accountCmd.AddCommand(accountListCmd("liked", "Lists the favorite videos of the account.", func(cmd *cobra.Command, a *hub.Account) (*query.Query[*hub.Video], error) {
		return a.Liked(), nil
	}))
	accountCmd.AddCommand(accountListCmd("watched", "Lists the viewing history of the account.", func(cmd *cobra.Command, a *hub.Account) (*query.Query[*hub.Video], error) {
		return a.Watched(), nil
	}))
	accountCmd.AddCommand(accountListCmd("recommended", "Lists the videos recommended to the account.", func(cmd *cobra.Command, a *hub.Account) (*query.Query[*hub.Video], error) {
		return a.Recommended(cmd.Context())
	}))
	accountCmd.AddCommand(subscriptionsCmd)
	rootCmd.AddCommand(accountCmd)
}

var errNoAccount = errors.New("no account is logged in, set email and password in the config")

func account() (*hub.Account, error) {
	a := client.Account()
	if a == nil {
		return nil, errNoAccount
	}
	return a, nil
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Browses the lists of the logged in account.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := account()
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendRow(table.Row{"Name", a.Name})
		t.AppendRow(table.Row{"Premium", a.Premium})
		t.AppendRow(table.Row{"Page", a.User.URL()})
		t.Render()
		return nil
	},
}

func accountListCmd(name, short string, listing func(*cobra.Command, *hub.Account) (*query.Query[*hub.Video], error)) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := account()
			if err != nil {
				return err
			}
			videos, err := listing(cmd, a)
			if err != nil {
				return err
			}
			sample, err := videos.Sample(cmd.Context(), accountMax, nil)
			if err != nil {
				return fmt.Errorf("list %s: %w", name, err)
			}
			printVideoList(cmd, sample)
			return nil
		},
	}
}

var subscriptionsCmd = &cobra.Command{
	Use:   "subscriptions",
	Short: "Lists the users the account is subscribed to.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := account()
		if err != nil {
			return err
		}
		users, err := a.Subscriptions(cmd.Context())
		if err != nil {
			return err
		}
		t := newTable()
		t.AppendHeader(table.Row{"Name", "Type", "Page"})
		for _, user := range users {
			t.AppendRow(table.Row{user.Name(), user.Type(), user.URL()})
		}
		t.Render()
		return nil
	},
}
