// glotto translates i18n JSON dictionaries with a text generation model.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/glotto/chunk"
	"github.com/minios-linux/glotto/config"
	"github.com/minios-linux/glotto/dict"
	"github.com/minios-linux/glotto/i18n"
	"github.com/minios-linux/glotto/langmeta"
	"github.com/minios-linux/glotto/merge"
	"github.com/minios-linux/glotto/spinner"
	"github.com/minios-linux/glotto/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newGenerator builds the translation backend for a module.
var newGenerator = translate.NewGenerator

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	i18n.Init(os.Getenv(config.EnvLang))

	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	a.spin.Stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.log.Error().Msg(i18n.T("Interrupted, no output written"))
		} else {
			a.log.Error().Msg(err.Error())
		}
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Application state
// ---------------------------------------------------------------------------

type flagValues struct {
	configPath string
	model      string
	verbose    bool
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	spin   *spinner.Spinner
	log    zerolog.Logger
	flags  flagValues
}

func newApp(stdout, stderr io.Writer) *app {
	a := &app{
		stdout: stdout,
		stderr: stderr,
		spin:   spinner.New(stderr, i18n.T("AI thinks...")),
	}
	a.log = newLogger(a.spin, spinner.IsTerminal(stderr)).Level(zerolog.InfoLevel)
	return a
}

// newLogger writes human-readable lines through the spinner so log output
// and the animation never share a line.
func newLogger(w io.Writer, color bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    !color,
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "glotto",
		Short: i18n.T("Translate i18n JSON files using AI services"),
		Long: i18n.T(`Glotto AI Translator

A tool for translating i18n JSON files using AI services. The input
dictionary is sent to the model in batches of --maxkeys keys and the
translated batches are merged back into one file in the original key order.

Settings are read from .glotto.yaml, .glotto.yml or .glotto.toml in the
working directory (or --config). The API key may also be given in the
GLOTTO_API_KEY environment variable or a .env file.`),
		Example: `  glotto --key {{key}} --input=en.json --output=tr.json --from=english --to=turkish --maxkeys=10
  glotto --key {{key}} -i en.json -o tr.json -f english -t turkish -m gemini -k 5`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().NFlag() == 0 {
				return cmd.Help()
			}
			return a.translate(cmd)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate("glotto {{.Version}}\n")

	f := root.Flags()
	f.String(config.ArgKey, "", i18n.T("API key for the AI service (required, or GLOTTO_API_KEY)"))
	f.StringP(config.ArgModule, "m", config.DefaultModule, i18n.T("AI translation module to use"))
	f.StringP(config.ArgInput, "i", "", i18n.T("Path to source JSON file (required)"))
	f.StringP(config.ArgOutput, "o", "", i18n.T("Path to target JSON file (required)"))
	f.StringP(config.ArgFrom, "f", "", i18n.T("Source language (required)"))
	f.StringP(config.ArgTo, "t", "", i18n.T("Target language (required)"))
	f.StringP(config.ArgMaxKeys, "k", fmt.Sprint(config.DefaultMaxKeys), i18n.T("Number of keys to process per batch"))

	f.StringVar(&a.flags.model, "model", "", i18n.T("Model name for the AI service"))
	f.StringVarP(&a.flags.configPath, "config", "c", "", i18n.T("Settings file (default: .glotto.yaml in the working directory)"))
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, i18n.T("Enable detailed logging"))

	_ = root.RegisterFlagCompletionFunc(config.ArgModule, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return config.SupportedModules, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"}, cobra.ShellCompDirectiveNoFileComp
	})

	return root
}

// paramFlags are the flags that make up config.Args.
var paramFlags = map[string]bool{
	config.ArgKey:     true,
	config.ArgModule:  true,
	config.ArgInput:   true,
	config.ArgOutput:  true,
	config.ArgFrom:    true,
	config.ArgTo:      true,
	config.ArgMaxKeys: true,
}

// collectArgs gathers the raw value of every run parameter, given or not.
func collectArgs(flags *pflag.FlagSet) config.Args {
	args := make(config.Args, len(paramFlags))
	flags.VisitAll(func(f *pflag.Flag) {
		if paramFlags[f.Name] {
			args[f.Name] = f.Value.String()
		}
	})
	return args
}

// ---------------------------------------------------------------------------
// Translation run
// ---------------------------------------------------------------------------

func (a *app) translate(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if a.flags.verbose {
		a.log = a.log.Level(zerolog.DebugLevel)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(wd); err != nil {
		return err
	}
	file, err := config.Load(wd, a.flags.configPath)
	if err != nil {
		return err
	}
	if file != nil {
		a.log.Debug().Str("path", file.Path()).Msg("loaded settings")
	}

	args := collectArgs(cmd.Flags()).Fill(cmd.Flags().Changed, file)
	cfg, err := config.Validate(args)
	if err != nil {
		return err
	}
	settings := a.settings(cmd, file)

	a.log.Info().Msgf("%s: %s", i18n.T("Module"), cfg.Module)
	a.log.Info().Msgf("%s: %s", i18n.T("Input"), cfg.Input)
	a.log.Info().Msgf("%s: %s", i18n.T("Output"), cfg.Output)
	a.log.Info().Msgf("%s: %s", i18n.T("From"), cfg.From)
	a.log.Info().Msgf("%s: %s", i18n.T("To"), cfg.To)
	a.log.Info().Msgf("%s: %d", i18n.T("Max Keys"), cfg.MaxKeys)
	a.log.Debug().Str("model", settings.Model).Str("base_url", settings.BaseURL).Dur("timeout", settings.Timeout).Int("max_retries", settings.MaxRetries).Msg("remote settings")

	source, err := dict.ParseFile(cfg.Input)
	if err != nil {
		return err
	}
	chunks, err := chunk.Split(source, cfg.MaxKeys)
	if err != nil {
		return err
	}

	if len(chunks) == 0 {
		a.log.Warn().Msg(i18n.T("Input dictionary is empty, nothing to translate"))
		if err := writeOutput(cfg.Output, source); err != nil {
			return err
		}
		a.log.Info().Msg(i18n.T("Translation completed"))
		return nil
	}

	gen, err := newGenerator(cfg.Module, translate.GeminiConfig{
		APIKey:     cfg.APIKey,
		Model:      settings.Model,
		BaseURL:    settings.BaseURL,
		Proxy:      settings.Proxy,
		Timeout:    settings.Timeout,
		MaxRetries: settings.MaxRetries,
		Logger:     a.log,
	})
	if err != nil {
		return err
	}

	from, to := langmeta.Resolve(cfg.From), langmeta.Resolve(cfg.To)
	if from.Known() || to.Known() {
		a.log.Debug().Str("from", from.Name).Str("to", to.Name).Msg("resolved language names")
	}

	opts := translate.Options{
		Prompts: settings.Prompts.Build(from.Name, to.Name),
		Target:  cfg.To,
		Logger:  a.log,
		OnProgress: func(done, total int) {
			a.spin.SetMessage(i18n.Tf("AI thinks... %d/%d", done, total))
		},
	}
	if settings.Diagnostics {
		opts.DiagnosticsDir = settings.DiagnosticsDir
	}

	a.log.Info().Msg(i18n.Tf("Translating %d keys in %d %s", source.Len(), len(chunks), i18n.N("chunk", "chunks", len(chunks))))
	a.spin.Start()
	res, err := translate.Translate(ctx, gen, chunks, opts)
	a.spin.Stop()
	if err != nil {
		return err
	}

	if len(res.Skipped) > 0 {
		a.log.Warn().Ints("chunks", res.Skipped).Msg(i18n.Tf("%d of %d chunks were skipped", len(res.Skipped), res.Chunks))
	}
	if err := writeOutput(cfg.Output, res.Dictionary); err != nil {
		return err
	}

	a.log.Info().Msg(i18n.T("Translation completed"))
	return nil
}

// settings resolves remote client settings: --model, then GLOTTO_MODEL, then
// the settings file, then defaults.
func (a *app) settings(cmd *cobra.Command, file *config.File) config.Settings {
	s := file.Settings()
	if cmd.Flags().Changed("model") && strings.TrimSpace(a.flags.model) != "" {
		s.Model = strings.TrimSpace(a.flags.model)
	} else if env := strings.TrimSpace(os.Getenv(config.EnvModel)); env != "" {
		s.Model = env
	}
	return s
}

// writeOutput renders d and writes it to path, creating parent directories.
func writeOutput(path string, d *dict.Dictionary) error {
	data, err := merge.Encode(d)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
