package reconcile

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"
)

// confirmViaReadline prints the orphan summary and asks the operator to
// confirm before any deletion proceeds; any reply beginning with "y" (case
// insensitive) confirms.
func confirmViaReadline(orphans []Orphan) (bool, error) {
	fmt.Print(summarize(orphans))

	rl, err := readline.New("Delete these resources? [y/N] ")
	if err != nil {
		return false, err
	}
	defer func() { _ = rl.Close() }()

	line, err := rl.Readline()
	if err != nil {
		return false, err
	}
	reply := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(reply, "y"), nil
}
