package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/shale-lang/shale/interp"
)

const (
	historyFile = ".shale_history"
	promptMain  = ">> "
	promptCont  = ".. "
	replContext = "(shale)"
)

func newReplCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRepl()
		},
	}
}

func (c *cli) runRepl() error {
	fmt.Printf("shale %s\nCtrl+C cancels input, Ctrl+D exits.\n", version)

	i, err := c.newInterpreter()
	if err != nil {
		return err
	}
	defer i.Close()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}

		result, err := i.EvalWithContext([]byte(code), interp.NewContext(replContext))
		// Keep line numbers continuous across inputs so backtraces point at
		// the right prompt.
		if _, lineErr := i.State().AddFetchLineno(strings.Count(code, "\n") + 1); lineErr != nil {
			fmt.Fprintln(os.Stderr, lineErr)
		}
		if err != nil {
			var exc *interp.Exception
			if errors.As(err, &exc) {
				fmt.Println(exc.Error())
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}
		fmt.Printf("=> %s\n", result.Inspect())
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readInput accumulates lines until the buffer looks like a complete
// program. The second return is false on EOF.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C abandons the current buffer.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		src := b.String()
		if !needsMore(src) {
			return src, true
		}
	}
}

// needsMore reports whether src has method definitions still waiting for
// their end keyword. Strings and comments are skipped so their contents do
// not count.
func needsMore(src string) bool {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\'', '"':
			quote := src[i]
			for i++; i < len(src) && src[i] != quote; i++ {
			}
		case '#':
			for ; i < len(src) && src[i] != '\n'; i++ {
			}
		default:
			if word, n := wordAt(src, i); n > 0 {
				switch word {
				case "def":
					depth++
				case "end":
					depth--
				}
				i += n - 1
			}
		}
	}
	return depth > 0
}

func wordAt(src string, i int) (string, int) {
	if !isWordByte(src[i]) || (i > 0 && isWordByte(src[i-1])) {
		return "", 0
	}
	j := i
	for j < len(src) && isWordByte(src[j]) {
		j++
	}
	return src[i:j], j - i
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
