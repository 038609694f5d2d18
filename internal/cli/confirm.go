package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/taskdeck/internal/store"
)

// confirmPrompt writes prompt to out and approves only a y or yes answer on in
func confirmPrompt(in io.Reader, out io.Writer) store.Confirmer {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func confirmer(cmd *cobra.Command, yes bool) store.Confirmer {
	if yes {
		return store.AlwaysConfirm
	}
	return confirmPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
}

// outcomeErr turns a failed store outcome into a command error
func outcomeErr(out store.Outcome) error {
	if out.Err == nil {
		return errors.New(out.Message)
	}
	return fmt.Errorf("%s: %w", strings.TrimSuffix(out.Message, " Please try again."), out.Err)
}
