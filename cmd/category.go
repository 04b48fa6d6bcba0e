package cmd

import (
	"github.com/spf13/cobra"
)

func categoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Browse post categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the categories that have posts",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cats, err := a.api.ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				cmd.Println("No categories yet.")
				return nil
			}
			for _, c := range cats {
				cmd.Println(c)
			}
			return nil
		}),
	})
	return cmd
}
