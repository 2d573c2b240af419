// Package prompt asks template questions on the terminal.
package prompt

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/roblaszczak/infra-cli/pkg/templater"
)

type Prompter interface {
	// Ask returns the user's answer, or def when the answer is empty.
	Ask(message, def string, hidden bool) (string, error)
}

// TerminalPrompter reads answers with pterm's interactive text input.
type TerminalPrompter struct{}

func (TerminalPrompter) Ask(message, def string, hidden bool) (string, error) {
	if def != "" && !hidden {
		message += " [" + def + "]"
	}

	input := pterm.DefaultInteractiveTextInput
	if hidden {
		input = *input.WithMask("*")
	}

	answer, err := input.Show(message)
	if err != nil {
		return "", errors.Wrapf(err, "cannot read answer for %q", message)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def, nil
	}

	return answer, nil
}

// AskQuestions asks the schema questions in order.
func AskQuestions(p Prompter, schema *templater.Schema) (templater.Variables, error) {
	answers := templater.Variables{}
	if schema == nil {
		return answers, nil
	}

	for _, q := range schema.Questions {
		def := ""
		if q.Default != nil {
			def = *q.Default
		}

		value, err := p.Ask(q.Prompt(), def, q.IsPassword())
		if err != nil {
			return nil, err
		}
		answers[q.Name] = value
	}

	return answers, nil
}

// AskName asks for the project name until a non-empty answer is given.
func AskName(p Prompter) (string, error) {
	for {
		name, err := p.Ask("Service/project name", "", false)
		if err != nil {
			return "", err
		}
		if name != "" {
			return name, nil
		}
		pterm.Warning.Println("name cannot be empty")
	}
}
