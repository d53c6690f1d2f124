package shell

import "strings"

// Classify decides how a stage with the given arguments runs.
func Classify(args []string, isBuiltin func(string) bool) CommandType {
	switch {
	case len(args) == 0:
		return External
	case isBuiltin != nil && isBuiltin(args[0]):
		return Internal
	case len(args) == 1 && strings.Contains(args[0], "="):
		return LocalVar
	default:
		return External
	}
}
