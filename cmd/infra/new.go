package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roblaszczak/infra-cli/pkg/prompt"
	"github.com/roblaszczak/infra-cli/pkg/templater"
)

func newNewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a project from a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.templater()
			if err != nil {
				return err
			}

			templateType := a.config.GetString("type")
			templateName := a.config.GetString("template")

			names, err := listOrWarn(t, templateType)
			if err != nil {
				return err
			}

			if templateName == "" {
				pterm.Warning.Println("Choose a template with --template. Available:")
				if err := printNames(names); err != nil {
					return err
				}
				return &exitError{code: exitTemplateMissing}
			}

			// parsed before prompting so a typo does not waste the answers
			overrides, err := a.variableOverrides()
			if err != nil {
				return &exitError{code: exitInvalidVars, err: err}
			}

			schema, err := t.LoadSchema(templateType, templateName)
			if err != nil {
				return err
			}

			answers, err := prompt.AskQuestions(a.prompter, schema)
			if err != nil {
				return err
			}

			vars := answers.Merge(overrides...)

			if name := a.config.GetString("name"); name != "" {
				vars[templater.NameVariable] = name
			}
			if _, ok := vars[templater.NameVariable]; !ok {
				name, err := prompt.AskName(a.prompter)
				if err != nil {
					return err
				}
				vars[templater.NameVariable] = name
			}

			target, err := t.Generate(templateType, templateName, vars, a.config.GetString("outdir"))
			if err != nil {
				return err
			}

			pterm.Success.Printfln("Generated in: %s", target)

			return nil
		},
	}

	cmd.Flags().String("type", "", "template type, e.g. k8s or terraform")
	cmd.Flags().String("template", "", "template name")
	cmd.Flags().String("name", "", "service/project name")
	cmd.Flags().String("outdir", "./out", "output directory")
	cmd.Flags().String("vars", "", "JSON object with variables")
	cmd.Flags().String("vars-file", "", "TOML, YAML or JSON file with variables")
	cmd.Flags().String("templates", "", "templates directory override")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// variableOverrides returns --vars-file and --vars variables, in increasing
// precedence.
func (a *app) variableOverrides() ([]templater.Variables, error) {
	var overrides []templater.Variables

	if path := a.config.GetString("vars-file"); path != "" {
		path, err := templater.ExpandPath(path)
		if err != nil {
			return nil, err
		}
		fileVars, err := templater.LoadVarsFile(path)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, fileVars)
	}

	if raw := a.config.GetString("vars"); raw != "" {
		jsonVars, err := templater.ParseVarsJSON(raw)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, jsonVars)
	}

	return overrides, nil
}
