package validation

import "fmt"

// InsufficientDataWarning records optional data that was missing. It never
// aborts an analysis; the affected indicator or heuristic lowers its
// confidence or is skipped instead.
type InsufficientDataWarning struct {
	Scope  string
	Detail string
}

func (w InsufficientDataWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Scope, w.Detail)
}

// Warnings collects InsufficientDataWarning values in the order they are raised.
type Warnings []InsufficientDataWarning

// Add appends a formatted warning.
func (w *Warnings) Add(scope, format string, args ...any) {
	*w = append(*w, InsufficientDataWarning{Scope: scope, Detail: fmt.Sprintf(format, args...)})
}

// Strings renders every warning for JSON output.
func (w Warnings) Strings() []string {
	out := make([]string, len(w))
	for i, warning := range w {
		out[i] = warning.String()
	}
	return out
}
