package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/genomemcp/genomemcp/internal/store"
)

var historyFlags struct {
	limit int
	json  bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent lookups and answers for the current user",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		db, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		items, err := db.History(cmd.Context(), a.cfg.UserID, historyFlags.limit)
		if err != nil {
			return err
		}
		if historyFlags.json {
			return writeJSON(cmd.OutOrStdout(), items)
		}
		printHistory(cmd.OutOrStdout(), items)
		return nil
	}),
}

var favoriteFlags struct {
	data string
	list bool
}

var favoriteCmd = &cobra.Command{
	Use:   "favorite [<item-type> <item-id>]",
	Short: "Toggle a saved item (gene, variant, pathway, ...) or list saved items",
	Args: func(cmd *cobra.Command, args []string) error {
		if favoriteFlags.list {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		db, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if favoriteFlags.list {
			favs, err := db.Favorites(cmd.Context(), a.cfg.UserID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tID\tSAVED")
			for _, f := range favs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.ItemType, f.ItemID, f.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		}

		var data any
		if favoriteFlags.data != "" {
			if !json.Valid([]byte(favoriteFlags.data)) {
				return errors.New("--data must be valid JSON")
			}
			data = json.RawMessage(favoriteFlags.data)
		}
		on, err := db.ToggleFavorite(cmd.Context(), a.cfg.UserID, args[0], args[1], data)
		if err != nil {
			return err
		}
		if on {
			fmt.Fprintf(out, "Saved %s %s\n", args[0], args[1])
		} else {
			fmt.Fprintf(out, "Removed %s %s\n", args[0], args[1])
		}
		return nil
	}),
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", store.DefaultHistoryLimit, "Maximum items")
	historyCmd.Flags().BoolVar(&historyFlags.json, "json", false, "Print items as JSON")

	favoriteCmd.Flags().StringVar(&favoriteFlags.data, "data", "", "JSON payload to store with the item")
	favoriteCmd.Flags().BoolVarP(&favoriteFlags.list, "list", "l", false, "List saved items")
}

func printHistory(out io.Writer, items []store.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No history.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tQUERY")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Type, it.Query)
	}
	w.Flush()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
