package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TrendCrawler/internal/database"
)

// --- watch command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage watch terms that widen NewsAPI searches",
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all watch terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		items, err := db.GetAllWatchTerms()
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No watch terms defined. Add one with: trendcrawler watch add")
			return nil
		}

		fmt.Println("Watch terms:")
		fmt.Println()
		for _, w := range items {
			icon := " "
			if w.IsActive {
				icon = "*"
			}
			fmt.Printf("  [%d] %s %s\n", w.ID, icon, w.Term)
			if w.Description != nil && *w.Description != "" {
				desc := *w.Description
				if len(desc) > 60 {
					desc = desc[:60] + "..."
				}
				fmt.Printf("        %s\n", desc)
			}
		}
		if !cfg.Sources.NewsAPI.Enabled {
			fmt.Println("\nNote: NewsAPI is disabled, so watch terms are not searched.")
		}
		return nil
	},
}

var watchAddCmd = &cobra.Command{
	Use:   "add [term] [description]",
	Short: "Add a new watch term",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		term := args[0]
		description := ""
		if len(args) > 1 {
			description = args[1]
		}

		id, err := db.InsertWatchTerm(term, description)
		if err != nil {
			return err
		}
		fmt.Printf("Added watch term [%d]: %s\n", id, term)
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a watch term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		w, err := lookupWatchTerm(db, args[0])
		if err != nil {
			return err
		}
		if err := db.DeleteWatchTerm(w.ID); err != nil {
			return err
		}
		fmt.Printf("Removed watch term [%d]: %s\n", w.ID, w.Term)
		return nil
	},
}

var watchToggleCmd = &cobra.Command{
	Use:   "toggle [id]",
	Short: "Toggle a watch term's active state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		w, err := lookupWatchTerm(db, args[0])
		if err != nil {
			return err
		}
		if err := db.ToggleWatchTerm(w.ID); err != nil {
			return err
		}
		newState := "disabled"
		if !w.IsActive {
			newState = "enabled"
		}
		fmt.Printf("Watch term [%d] %s: %s\n", w.ID, w.Term, newState)
		return nil
	},
}

func init() {
	watchCmd.AddCommand(watchListCmd)
	watchCmd.AddCommand(watchAddCmd)
	watchCmd.AddCommand(watchRemoveCmd)
	watchCmd.AddCommand(watchToggleCmd)
}

func lookupWatchTerm(db *database.DB, arg string) (*database.WatchTerm, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid watch term ID: %s", arg)
	}
	w, err := db.GetWatchTerm(id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("watch term %d not found", id)
	}
	return w, nil
}
