package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roblaszczak/infra-cli/pkg/templater"
)

func newTemplatesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List available templates of a type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.templater()
			if err != nil {
				return err
			}

			templateType := a.config.GetString("type")

			names, err := listOrWarn(t, templateType)
			if err != nil {
				return err
			}

			pterm.Info.Printfln("Templates of %s:", templateType)
			return printNames(names)
		},
	}

	cmd.Flags().String("type", "", "template type, e.g. k8s or terraform")
	cmd.Flags().String("templates", "", "templates directory override")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// listOrWarn fails with exit status 1 when there are no templates of the type.
func listOrWarn(t templater.Templater, templateType string) ([]string, error) {
	names, err := t.List(templateType)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		pterm.Warning.Printfln("No %s templates found in %s. Run `infra use-repo` or set --templates.", templateType, t.Root())
		return nil, &exitError{code: 1}
	}

	return names, nil
}

func printNames(names []string) error {
	items := make([]pterm.BulletListItem, 0, len(names))
	for _, name := range names {
		items = append(items, pterm.BulletListItem{Level: 0, Text: name})
	}

	return pterm.DefaultBulletList.WithItems(items).Render()
}
