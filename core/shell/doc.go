// Package shell compiles a single command line into a pipeline of stages and
// executes it.
//
// A line goes through the following phases, in order:
//
// 1. Comments are stripped and the line is split into words. Single quotes,
// double quotes and $(...) spans are never split.
//
// 2. Words are grouped into stages on the | token and an OS pipe is allocated
// between every pair of adjacent stages.
//
// 3. Redirection operators and their targets are removed from each stage and
// the stage's descriptor triple is rewritten to the opened files.
//
// 4. $name references are replaced in every remaining word using local
// variables first and then the environment.
//
// 5. Each stage is classified as a builtin, a local variable assignment or an
// external program.
//
// 6. External programs are started first, then builtins and assignments run
// in-process, then the shell waits for the children and reports the first
// non-zero status.
package shell
