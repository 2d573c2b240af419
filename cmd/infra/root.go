package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roblaszczak/infra-cli/pkg/prompt"
	"github.com/roblaszczak/infra-cli/pkg/templater"
)

const envPrefix = "INFRA_CLI"

const (
	exitTemplateMissing = 2
	exitInvalidVars     = 3
)

// exitError sets the process exit code. A nil err means the message was
// already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type app struct {
	config   *viper.Viper
	logger   zerolog.Logger
	prompter prompt.Prompter
}

func newApp(prompter prompt.Prompter) *app {
	config := viper.New()
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	return &app{
		config:   config,
		logger:   zerolog.Nop(),
		prompter: prompter,
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "infra",
		Short:         "Generate Kubernetes and Terraform boilerplate from template repositories",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			return a.initLogger()
		},
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newUseRepoCmd(a),
		newTemplatesCmd(a),
		newNewCmd(a),
	)

	return rootCmd
}

// bindFlags binds the running command's flags only, so commands sharing a
// flag name do not override each other's bindings.
func (a *app) bindFlags(flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr := a.config.BindPFlag(f.Name, f); bindErr != nil && err == nil {
			err = errors.Wrapf(bindErr, "cannot bind flag %s", f.Name)
		}
	})
	return err
}

func (a *app) initLogger() error {
	level, err := zerolog.ParseLevel(a.config.GetString("log-level"))
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return nil
}

// templater builds a Templater, honouring --templates and INFRA_CLI_TEMPLATES.
func (a *app) templater() (templater.Templater, error) {
	dataDir, err := templater.DataDir()
	if err != nil {
		return templater.Templater{}, err
	}

	t := templater.New(dataDir, a.logger)

	if dir := a.config.GetString("templates"); dir != "" {
		t.TemplatesDir, err = templater.ExpandPath(dir)
		if err != nil {
			return templater.Templater{}, err
		}
	}

	return t, nil
}
