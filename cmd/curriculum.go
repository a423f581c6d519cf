package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/adaptiq/internal/curriculum"
)

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Manage topics, subtopics and prerequisites",
}

var curriculumSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the stored curriculum (built-in Corporate Finance by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := curriculum.CorporateFinance()
		if path, _ := cmd.Flags().GetString("file"); path != "" {
			loaded, err := curriculum.Load(path)
			if err != nil {
				return err
			}
			c = loaded
		}
		if err := curriculum.Validate(c); err != nil {
			return err
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		topics, edges := c.Records()
		if err := a.Store.CurriculumRepo().Seed(cmd.Context(), topics, edges); err != nil {
			return fmt.Errorf("seed curriculum: %w", err)
		}
		fmt.Printf("Seeded %d topic(s) and %d prerequisite(s).\n", len(topics), len(edges))
		return nil
	},
}

var curriculumShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored curriculum in study order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer closeApp(a)

		ctx := cmd.Context()
		repo := a.Store.CurriculumRepo()
		topics, err := repo.Topics(ctx)
		if err != nil {
			return fmt.Errorf("read topics: %w", err)
		}
		if len(topics) == 0 {
			fmt.Println("No curriculum stored. Run `adaptiq curriculum seed`.")
			return nil
		}
		edges, err := repo.Edges(ctx)
		if err != nil {
			return fmt.Errorf("read prerequisites: %w", err)
		}

		c := curriculum.FromRecords(topics, edges)
		order, err := curriculum.Order(c)
		if err != nil {
			return err
		}

		prereqs := make(map[curriculum.Ref][]curriculum.Ref)
		for _, e := range c.Prerequisites {
			prereqs[e.Target] = append(prereqs[e.Target], e.Prereq)
		}

		for i, ref := range order {
			fmt.Printf("%2d. %s\n", i+1, ref)
			for _, p := range prereqs[ref] {
				fmt.Printf("      requires %s\n", p)
			}
		}
		return nil
	},
}

func init() {
	curriculumSeedCmd.Flags().StringP("file", "f", "", "YAML curriculum file")

	curriculumCmd.AddCommand(curriculumSeedCmd)
	curriculumCmd.AddCommand(curriculumShowCmd)
}
