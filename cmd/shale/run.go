package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shale-lang/shale/interp"
)

func newRunCmd(c *cli) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return c.watchAndRun(args[0])
			}
			return c.runFile(args[0])
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run the file whenever it changes")
	return cmd
}

// runFile executes one file in a fresh interpreter. Script exceptions are
// printed with their backtrace and reported as a silent error so cobra does
// not repeat them.
func (c *cli) runFile(name string) error {
	src, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}

	i, err := c.newInterpreter()
	if err != nil {
		return err
	}
	defer i.Close()

	_, err = i.EvalWithContext(src, interp.NewContext(filepath.ToSlash(abs)))
	if err != nil {
		var exc *interp.Exception
		if errors.As(err, &exc) {
			fmt.Fprintln(os.Stderr, exc.Error())
			return errScriptFailed
		}
		return err
	}
	return nil
}

var errScriptFailed = errors.New("script raised an exception")

// watchAndRun executes the file once, then re-runs it in a fresh interpreter
// on every write until interrupted.
func (c *cli) watchAndRun(name string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors that replace the
	// file on save would otherwise drop the watch.
	dir := filepath.Dir(name)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target, err := filepath.Abs(name)
	if err != nil {
		return err
	}

	report := func() {
		if err := c.runFile(name); err != nil && !errors.Is(err, errScriptFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	report()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evPath, err := filepath.Abs(ev.Name)
			if err != nil || evPath != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.log.Debug("file changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			report()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("watch error", zap.Error(err))
		case <-sigc:
			return nil
		}
	}
}
