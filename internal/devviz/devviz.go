// Package devviz renders a snapshot of an arbitrary Go value's memory graph
// as Graphviz dot, using bradleyjkemp/memviz. It exists for one purpose: a
// developer chasing a register-file or cache-corruption bug can dump the
// live core's internal state to a .dot file and actually look at the
// pointer graph instead of printf-debugging it.
package devviz

import (
	"fmt"
	"os"

	"github.com/bradleyjkemp/memviz"
)

// Dump writes a dot-format memory graph of v to path, suitable for piping
// through `dot -Tpng`. It takes a pointer to the value being graphed, same
// as memviz.Map itself requires to walk the structure.
func Dump(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("devviz: %w", err)
	}
	defer f.Close()

	memviz.Map(f, v)
	return nil
}
