package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	shale "github.com/shale-lang/shale"
	"github.com/shale-lang/shale/interp"
)

const version = "0.1.0"

// cliConfig is the flattened configuration surface of the CLI. Values come
// from a YAML config file and SHALE_-prefixed environment variables; flags
// override both.
type cliConfig struct {
	Engine     string `koanf:"engine"`
	SearchRoot string `koanf:"search_root"`
	LogLevel   string `koanf:"log_level"`
	LibDir     string `koanf:"lib_dir"`
}

type cli struct {
	cfgFile string
	cfg     cliConfig
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "shale",
		Short:         "shale runs scripts on an embedded interpreter",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "path to a YAML config file")
	flags.String("engine", "", "engine backend to use")
	flags.String("search-root", "", "virtual root for bare require names")
	flags.String("log-level", "", "zap log level (debug, info, warn, error)")
	flags.String("lib", "", "directory of sources registered under the search root")

	root.AddCommand(newRunCmd(c), newEvalCmd(c), newReplCmd(c))
	return root
}

// setup resolves configuration in precedence order and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	c.cfg = cliConfig{
		Engine:     "shale",
		SearchRoot: interp.DefaultSearchRoot,
		LogLevel:   "warn",
	}

	k := koanf.New(".")
	if c.cfgFile != "" {
		if err := k.Load(file.Provider(c.cfgFile), yaml.Parser()); err != nil {
			return fmt.Errorf("load config %s: %w", c.cfgFile, err)
		}
	}
	if err := k.Load(env.Provider("SHALE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SHALE_"))
	}), nil); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	if err := k.Unmarshal("", &c.cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	flagOverrides := map[string]*string{
		"engine":      &c.cfg.Engine,
		"search-root": &c.cfg.SearchRoot,
		"log-level":   &c.cfg.LogLevel,
		"lib":         &c.cfg.LibDir,
	}
	for name, dst := range flagOverrides {
		if cmd.Flags().Changed(name) {
			v, err := cmd.Flags().GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	level, err := zap.ParseAtomicLevel(c.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.cfg.LogLevel, err)
	}
	logCfg := zap.NewProductionConfig()
	logCfg.Level = level
	logCfg.OutputPaths = []string{"stderr"}
	c.log, err = logCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

// newInterpreter builds an interpreter from the resolved configuration and
// registers every file under the lib directory as a requirable source.
func (c *cli) newInterpreter() (*interp.Interpreter, error) {
	i, err := shale.New(
		interp.WithLogger(c.log),
		interp.WithConfig(interp.Config{
			Engine:     c.cfg.Engine,
			SearchRoot: c.cfg.SearchRoot,
		}),
	)
	if err != nil {
		return nil, err
	}
	if c.cfg.LibDir != "" {
		if err := c.registerLibDir(i); err != nil {
			return nil, fmt.Errorf("register lib dir: %w", err)
		}
	}
	return i, nil
}

func (c *cli) registerLibDir(i *interp.Interpreter) error {
	root := os.DirFS(c.cfg.LibDir)
	return fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".rb") {
			return nil
		}
		contents, err := fs.ReadFile(root, p)
		if err != nil {
			return err
		}
		name := path.Join(c.cfg.SearchRoot, filepath.ToSlash(p))
		c.log.Debug("registering source", zap.String("name", name))
		return i.DefineScriptSource(name, contents)
	})
}
