package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/Baryonic/aida/pkg/catalog"
	"github.com/Baryonic/aida/pkg/clientcart"
	"github.com/Baryonic/aida/pkg/database"

	"github.com/spf13/cobra"
)

func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the local cart",
		Long: `Manage the local cart kept in CART_FILE.

The local cart holds snapshots of books taken when they were added. It is
independent of the server-side cart behind /api/cart.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := openCart(rootOpts)
			printCart(cmd.OutOrStdout(), c.Items(), c)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <slug>",
		Short: "Add one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(rootOpts.Config, rootOpts.Log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			book, err := catalog.NewService(db).GetBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return withCart(cmd, rootOpts, func(c *clientcart.Cart) error {
				return c.Add(*book)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <book-id> <qty>",
		Short: "Set the quantity of a book in the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return withCart(cmd, rootOpts, func(c *clientcart.Cart) error {
				return c.SetQuantity(id, qty)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a book from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBookID(args[0])
			if err != nil {
				return err
			}
			return withCart(cmd, rootOpts, func(c *clientcart.Cart) error {
				return c.Remove(id)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, rootOpts, func(c *clientcart.Cart) error {
				return c.Clear()
			})
		},
	})

	return cmd
}

func openCart(opts *RootOptions) *clientcart.Cart {
	return clientcart.New(clientcart.NewFileStorage(opts.Config.CartFile))
}

// withCart runs fn against the local cart and prints the cart whenever it
// reports a change.
func withCart(cmd *cobra.Command, opts *RootOptions, fn func(*clientcart.Cart) error) error {
	c := openCart(opts)
	unsubscribe := c.Subscribe(func(items []clientcart.Item) {
		printCart(cmd.OutOrStdout(), items, c)
	})
	defer unsubscribe()
	return fn(c)
}

func printCart(w io.Writer, items []clientcart.Item, c *clientcart.Cart) {
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", it.ID, it.Title, it.Price.StringFixed(2), it.Quantity)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "items: %d  total: %s\n", c.Count(), c.Total().StringFixed(2))
}

func parseBookID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return uint(id), nil
}
