package main

import (
	"github.com/spf13/cobra"

	"philalign/api/internal/llm"
	"philalign/api/internal/scenario"
	"philalign/api/internal/util"
)

func newScenariosCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := scenario.Default()
			if file != "" {
				var err error
				if st, err = scenario.LoadFile(file); err != nil {
					return err
				}
			}
			for _, s := range st.List() {
				if s.Category != "" {
					a.printf("%3d. %s [%s]\n", s.ID, s.Name, s.Category)
				} else {
					a.printf("%3d. %s\n", s.ID, s.Name)
				}
				a.printf("     %s\n", util.Preview(s.Text, 100))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "list a .csv or .xlsx scenario table instead")
	return cmd
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the supported models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients := a.clients()
			var last llm.Provider
			for _, m := range llm.Models() {
				if m.Provider != last {
					status := "configured"
					if _, ok := clients.Get(m.Provider); !ok {
						status = m.Provider.KeyEnv() + " not set"
					}
					a.printf("%s (%s)\n", m.Provider, status)
					last = m.Provider
				}
				a.printf("  %-26s %s\n", m.ID, m.Description)
			}
			return nil
		},
	}
}
