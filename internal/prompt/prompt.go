// Package prompt holds the interactive forms used on the rollback
// path. Everything here is optional at runtime: non-interactive
// invocations (--commit, --previous, --force) never reach it.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"shipctl/internal/domain"
	"shipctl/internal/gitrepo"
	"shipctl/internal/util"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// freeFormOption is the select entry that switches to manual entry.
const freeFormOption = "__other__"

// IsInteractive reports whether stdin is a terminal. Interactive
// target selection is refused otherwise — a script piping into
// shipctl must pass --commit or --previous.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// RollbackWizard implements the rollback orchestrator's prompting via
// huh forms.
type RollbackWizard struct {
	// Accessible switches huh to accessible mode (ACCESSIBLE env).
	Accessible bool
}

// NewRollbackWizard returns a wizard honoring the ACCESSIBLE env var.
func NewRollbackWizard() *RollbackWizard {
	return &RollbackWizard{Accessible: os.Getenv("ACCESSIBLE") != ""}
}

// PickRevision shows the recent revisions and returns the chosen
// revision id. The last entry switches to a free-form input for any
// other revision spelling.
func (w *RollbackWizard) PickRevision(revs []gitrepo.Revision) (string, error) {
	options := make([]huh.Option[string], 0, len(revs)+1)
	for _, rev := range revs {
		label := fmt.Sprintf("%s  %s", rev.ShortID(), rev.Subject)
		options = append(options, huh.NewOption(label, rev.ID))
	}
	options = append(options, huh.NewOption("Other (enter a revision)", freeFormOption))

	var choice string
	selectField := huh.NewSelect[string]().
		Title("Roll back to which revision?").
		Options(options...).
		Value(&choice).
		Height(selectHeight(len(options), 12))

	if err := w.runForm(huh.NewGroup(selectField)); err != nil {
		return "", err
	}

	if choice != freeFormOption {
		return choice, nil
	}

	var manual string
	inputField := huh.NewInput().
		Title("Revision").
		Placeholder("commit hash, branch, or HEAD~n").
		Value(&manual).
		Validate(func(v string) error {
			return util.ValidateRevision(strings.TrimSpace(v))
		})

	if err := w.runForm(huh.NewGroup(inputField)); err != nil {
		return "", err
	}
	return strings.TrimSpace(manual), nil
}

// ConfirmRollback asks for explicit confirmation before anything
// destructive happens. Returns false on decline.
func (w *RollbackWizard) ConfirmRollback(revision, description string) (bool, error) {
	title := fmt.Sprintf("Roll back to %s?", revision)
	if description != "" {
		title = fmt.Sprintf("Roll back to %s (%s)?", revision, description)
	}

	confirmed := false
	confirmField := huh.NewConfirm().
		Title(title).
		Description("This switches the working tree and redeploys. Uncommitted changes are stashed.").
		Affirmative("Roll back").
		Negative("Cancel").
		Value(&confirmed)

	if err := w.runForm(huh.NewGroup(confirmField)); err != nil {
		return false, err
	}
	return confirmed, nil
}

func (w *RollbackWizard) runForm(groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(w.Accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return domain.ErrUserCancelled
		}
		return err
	}
	return nil
}

func selectHeight(n, max int) int {
	if n < max {
		return n + 2
	}
	return max
}
