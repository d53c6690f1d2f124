package core

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/abiosoft/readline"

	"github.com/josephlewis42/myshell/core/shell"
	"github.com/josephlewis42/myshell/core/vars"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string, stdio shell.IO) int
}

type ShellBuiltinFunc func(s *Shell, args []string, stdio shell.IO) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string, stdio shell.IO) int {
	return f(s, args, stdio)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// BuiltinNames returns the names of all builtins in sorted order.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinCompleter() readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range BuiltinNames() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Merrno prints the status of the previous line.
func Merrno(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "merrno [-v]",
		Short: "Print the exit status of the previous command.",
	}
	verbose := cmd.Flags().Bool('v', "also print the symbolic error name")

	return cmd.Run(args, stdio, func() int {
		if name := shell.ErrnoName(s.LastStatus); *verbose && name != "" {
			fmt.Fprintf(stdio.Stdout, "%d %s\n", s.LastStatus, name)
		} else {
			fmt.Fprintln(stdio.Stdout, s.LastStatus)
		}
		return 0
	})
}

// Mpwd prints the working directory.
func Mpwd(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "mpwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(args, stdio, func() int {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		fmt.Fprintln(stdio.Stdout, wd)
		return 0
	})
}

// Mcd changes the working directory.
func Mcd(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "mcd [DIR]",
		Short: "Change the shell working directory, HOME by default.",
	}

	return cmd.Run(args, stdio, func() int {
		var dir string
		switch rest := cmd.Args(); len(rest) {
		case 0:
			home, ok := s.Env.Lookup(EnvHome)
			if !ok || home == "" {
				fmt.Fprintf(stdio.Stderr, "%s: HOME not set\n", args[0])
				return 1
			}
			dir = home
		case 1:
			dir = rest[0]
		default:
			fmt.Fprintf(stdio.Stderr, "%s: too many arguments\n", args[0])
			return 1
		}

		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %v\n", args[0], err)
			return 1
		}
		if wd, err := os.Getwd(); err == nil {
			s.Env.Set(EnvPWD, wd)
		}
		return 0
	})
}

// Mecho writes its arguments separated by spaces.
func Mecho(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "mecho [-ne] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	noNewline := opt.Bool('n', "do not output the trailing newline")
	escaped := opt.Bool('e', "interpret backslash escapes")

	return cmd.Run(args, stdio, func() int {
		w := stdio.Stdout
		for i, arg := range cmd.Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}

			if *escaped {
				arg = unescape(arg)
			}

			fmt.Fprint(w, arg)
		}

		if !*noNewline {
			fmt.Fprintln(w)
		}

		return 0
	})
}

// Mexport moves variables into the environment.
func Mexport(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "mexport [-n] [NAME[=VALUE]] ...",
		Short: "Set the export attribute for shell variables, with no names print the environment.",
	}
	remove := cmd.Flags().Bool('n', "remove the export attribute from each NAME")

	return cmd.Run(args, stdio, func() int {
		rest := cmd.Args()
		if *remove {
			for _, name := range rest {
				if value, ok := s.Env.Lookup(name); ok {
					if _, local := s.Locals.Lookup(name); !local {
						s.Locals.Set(name, value)
					}
				}
				s.Env.Unset(name)
			}
			return 0
		}

		if len(rest) == 0 {
			for _, kv := range s.Env.Environ() {
				fmt.Fprintln(stdio.Stdout, kv)
			}
			return 0
		}

		status := 0
		for _, arg := range rest {
			if name, value, ok := vars.ParseAssignment(arg); ok {
				s.Locals.Set(name, value)
				s.Env.Set(name, value)
				continue
			}

			if !vars.ValidName(arg) {
				fmt.Fprintf(stdio.Stderr, "%s: %q: not a valid identifier\n", args[0], arg)
				status = 1
				continue
			}

			if value, ok := s.Locals.Lookup(arg); ok {
				s.Env.Set(arg, value)
			} else if _, ok := s.Env.Lookup(arg); !ok {
				s.Env.Set(arg, "")
			}
		}
		return status
	})
}

// Mexit terminates the shell.
func Mexit(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "mexit [CODE]",
		Short: "Exit the shell with status CODE, or the last status if omitted.",
	}

	return cmd.Run(args, stdio, func() int {
		s.quit = true

		switch rest := cmd.Args(); len(rest) {
		case 0:
			return s.LastStatus
		case 1:
			code, err := strconv.Atoi(rest[0])
			if err != nil {
				fmt.Fprintf(stdio.Stderr, "%s: %s: numeric argument required\n", args[0], rest[0])
				return 2
			}
			return code & 0xff
		default:
			s.quit = false
			fmt.Fprintf(stdio.Stderr, "%s: too many arguments\n", args[0])
			return 1
		}
	})
}

// Source runs a script in the current shell.
func Source(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   ". SCRIPT",
		Short: "Execute commands from a file in the current shell.",
	}

	return cmd.Run(args, stdio, func() int {
		rest := cmd.Args()
		if len(rest) != 1 {
			fmt.Fprintf(stdio.Stderr, "%s: filename argument required\n", args[0])
			return 2
		}

		restore := s.redirectStd(stdio.Files)
		status, err := s.RunScript(rest[0])
		restore()

		var spawnErr *shell.SpawnError
		switch {
		case errors.As(err, &spawnErr):
			// Already reported, the shell is exiting.
		case err != nil:
			fmt.Fprintf(stdio.Stderr, "%s: %v\n", args[0], err)
		}
		return status
	})
}

// Alias reports that aliases aren't available.
func Alias(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "alias [NAME[=VALUE]] ...",
		Short: "Define or display aliases.",
	}

	return cmd.Run(args, stdio, func() int {
		fmt.Fprintf(stdio.Stderr, "%s: aliases are not supported\n", args[0])
		return 1
	})
}

// Help lists the builtins.
func Help(s *Shell, args []string, stdio shell.IO) int {
	cmd := &SimpleCommand{
		Use:   "help",
		Short: "Display information about builtin commands.",
	}

	return cmd.Run(args, stdio, func() int {
		w := stdio.Stdout
		fmt.Fprintf(w, "%s builtins. Type `NAME --help' to find out more about NAME.\n", s.Config.ShellName)
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 8, 8, 2, ' ', 0)
		defer tw.Flush()
		for _, name := range BuiltinNames() {
			fmt.Fprintf(tw, "  %s\t%s\n", name, builtinDescriptions[name])
		}
		return 0
	})
}

var builtinDescriptions = map[string]string{
	".":       "run a script in the current shell",
	"alias":   "define aliases (unsupported)",
	"help":    "list builtins",
	"mcd":     "change directory",
	"mecho":   "print arguments",
	"merrno":  "print the previous exit status",
	"mexit":   "exit the shell",
	"mexport": "export variables",
	"mpwd":    "print working directory",
}

// unescape interprets the backslash escapes mecho -e understands.
func unescape(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			out.WriteByte(s[i])
			continue
		}

		i++
		switch c := s[i]; c {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case 'a':
			out.WriteByte('\a')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'v':
			out.WriteByte('\v')
		case '\\':
			out.WriteByte('\\')
		case '0':
			n, width := parseDigits(s[i+1:], 8, 3)
			out.WriteByte(byte(n))
			i += width
		case 'x':
			n, width := parseDigits(s[i+1:], 16, 2)
			if width == 0 {
				out.WriteString(`\x`)
				continue
			}
			out.WriteByte(byte(n))
			i += width
		default:
			out.WriteByte('\\')
			out.WriteByte(c)
		}
	}
	return out.String()
}

// parseDigits reads up to max digits of the given base from the start of s.
func parseDigits(s string, base, max int) (value, width int) {
	for width < max && width < len(s) {
		digit, err := strconv.ParseUint(s[width:width+1], base, 8)
		if err != nil {
			break
		}
		value = value*base + int(digit)
		width++
	}
	return value, width
}

func init() {
	AllBuiltins["merrno"] = ShellBuiltinFunc(Merrno)
	AllBuiltins["mpwd"] = ShellBuiltinFunc(Mpwd)
	AllBuiltins["mcd"] = ShellBuiltinFunc(Mcd)
	AllBuiltins["mecho"] = ShellBuiltinFunc(Mecho)
	AllBuiltins["mexport"] = ShellBuiltinFunc(Mexport)
	AllBuiltins["mexit"] = ShellBuiltinFunc(Mexit)
	AllBuiltins["."] = ShellBuiltinFunc(Source)
	AllBuiltins["alias"] = ShellBuiltinFunc(Alias)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
}
