package main

import (
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roblaszczak/infra-cli/pkg/templater"
)

func newUseRepoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use-repo",
		Short: "Sync templates from a git repository containing a templates/ directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.templater()
			if err != nil {
				return err
			}

			repo, ref, err := a.repoAndRef(t.DataDir)
			if err != nil {
				return err
			}

			templatesDir, err := t.Sync(cmd.Context(), repo, ref)
			if err != nil {
				return err
			}
			pterm.Success.Printfln("Templates available in: %s", templatesDir)

			configPath, err := templater.SaveConfig(t.DataDir, templater.Config{DefaultRepo: repo, Ref: ref})
			if err != nil {
				return err
			}
			pterm.Info.Printfln("Config saved to: %s", configPath)

			return nil
		},
	}

	cmd.Flags().String("repo", "", "git URL (SSH/HTTPS) containing /templates, defaults to the last used repository")
	cmd.Flags().String("ref", "main", "branch, tag or commit")

	return cmd
}

// repoAndRef falls back to the repository and ref saved in config.json when
// --repo is not given.
func (a *app) repoAndRef(dataDir string) (string, string, error) {
	repo := a.config.GetString("repo")
	if repo != "" {
		return repo, a.config.GetString("ref"), nil
	}

	a.config.SetConfigFile(templater.ConfigPath(dataDir))
	a.config.SetConfigType("json")
	if err := a.config.ReadInConfig(); err != nil {
		return "", "", errors.New("--repo is required, no repository was used before")
	}

	repo = a.config.GetString("defaultRepo")
	if repo == "" {
		return "", "", errors.New("--repo is required, no repository was used before")
	}

	// an explicit --ref still wins over the saved one
	return repo, a.config.GetString("ref"), nil
}
