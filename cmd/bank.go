package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/bank"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and populate the item bank",
}

var bankListCmd = &cobra.Command{
	Use:   "list",
	Short: "Count bank items per topic, subtopic and difficulty",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		cells, err := a.Store.ItemRepo().Cells(cmd.Context())
		if err != nil {
			return fmt.Errorf("count items: %w", err)
		}
		if len(cells) == 0 {
			fmt.Println("The item bank is empty.")
			return nil
		}

		fmt.Printf("%-24s  %-28s  %-14s  %6s\n", "Topic", "Subtopic", "Difficulty", "Items")
		fmt.Println(strings.Repeat("─", 78))
		total := 0
		for _, c := range cells {
			if topic != "" && c.Topic != topic {
				continue
			}
			fmt.Printf("%-24s  %-28s  %-14s  %6d\n",
				truncate(c.Topic, 24), truncate(c.Subtopic, 28), c.Difficulty, c.Items)
			total += c.Items
		}
		fmt.Println(strings.Repeat("─", 78))
		fmt.Printf("%-24s  %-28s  %-14s  %6d\n", "TOTAL", "", "", total)
		return nil
	},
}

var bankImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Embed and add curated items from a YAML bank file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := bank.LoadCurated(args[0])
		if err != nil {
			return err
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		report, err := a.Importer.Import(cmd.Context(), items)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d new item(s); %d already present.\n", report.Added, report.Existing)
		for _, w := range report.Warnings {
			fmt.Printf("  warning: %s is %.2f similar to %s\n    %s\n",
				w.ItemID, w.Similarity, w.NearID, truncate(w.Question, 70))
		}
		return nil
	},
}

func init() {
	bankListCmd.Flags().String("topic", "", "Only show cells of this topic")

	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankImportCmd)
}
