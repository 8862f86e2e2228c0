package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-tplcompose/pkg/compose"
)

// ErrAborted is returned when the user interrupts a prompt.
var ErrAborted = errors.New("tplcompose: prompt aborted")

// prompter asks the user for a single token value.
type prompter interface {
	Ask(ctx context.Context, name string) (string, error)
}

// newPrompter is swapped out in tests.
var newPrompter = func() prompter {
	return surveyPrompter{}
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s:", name),
		Help:    fmt.Sprintf("value for the %q token", name),
	}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", ErrAborted
		}
		return "", err
	}
	return out, nil
}

// promptTokens asks for every name in names that tokens does not define yet.
func promptTokens(ctx context.Context, p prompter, tokens compose.Tokens, names []string) error {
	for _, name := range names {
		if _, ok := tokens[name]; ok {
			continue
		}
		value, err := p.Ask(ctx, name)
		if err != nil {
			return fmt.Errorf("prompt %s: %w", name, err)
		}
		tokens[name] = value
	}
	return nil
}
