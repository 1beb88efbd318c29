package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msto63/itemdb/internal/item"
)

var expectedVersion int64

var createCmd = &cobra.Command{
	Use:   "create <name> <description>",
	Short: "Create a new item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			created, err := a.service.Create(ctx, item.CreateParams{Name: args[0], Description: args[1]})
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), "created", created)
		})
	},
}

var readCmd = &cobra.Command{
	Use:   "read [id]",
	Short: "Read one item, or all items without an id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if len(args) == 0 {
				items, err := a.service.List(ctx)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			found, err := a.service.Get(ctx, id)
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), "item", found)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id> [name] [description]",
	Short: "Update an item's name and description",
	Long: `Update an item. Omitted arguments keep their current value.

With --version the update only succeeds while the item still has that
version; otherwise it fails with DB_OPTIMISTIC_LOCK.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		params := item.UpdateParams{ID: id, Version: expectedVersion}
		if len(args) > 1 {
			params.Name = &args[1]
		}
		if len(args) > 2 {
			params.Description = &args[2]
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			updated, err := a.service.Update(ctx, params)
			if err != nil {
				return err
			}
			return printItem(cmd.OutOrStdout(), "updated", updated)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if err := a.service.Delete(ctx, id); err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted item %d\n", id)
			return nil
		})
	},
}

func init() {
	updateCmd.Flags().Int64Var(&expectedVersion, "version", 0, "expected current version (optimistic locking)")

	rootCmd.AddCommand(createCmd, readCmd, updateCmd, deleteCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q: %w", arg, err)
	}
	return id, nil
}

func printItem(w io.Writer, label string, it *item.Item) error {
	if jsonOutput {
		return writeJSON(w, it)
	}
	_, err := fmt.Fprintf(w, "%s: id: %d, name: %s, description: %s, version: %d\n",
		label, it.ID, it.Name, it.Description, it.Version)
	return err
}

func printItems(w io.Writer, items []*item.Item) error {
	if jsonOutput {
		return writeJSON(w, items)
	}
	for _, it := range items {
		if _, err := fmt.Fprintf(w, "id: %d, name: %s, description: %s, version: %d\n",
			it.ID, it.Name, it.Description, it.Version); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
