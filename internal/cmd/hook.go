package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/meridian-hooks/meridian/internal/config"
	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/logging"
	"github.com/meridian-hooks/meridian/internal/repo"
	"github.com/meridian-hooks/meridian/internal/statestore"
	"github.com/meridian-hooks/meridian/internal/workflow"
)

// hookTimeout bounds a single invocation. The host kills hooks that run
// for too long; staying well under that keeps the outcome ours.
const hookTimeout = 30 * time.Second

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Handle one hook event read from stdin",
	Long: `Read a single Claude Code hook event as JSON from stdin, run the gates
registered for it and print the decision JSON the host expects.

The command always exits 0. Malformed input, unreadable state and any other
fault are logged to .meridian/hooks.log and the event is allowed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner := hookRunner{
			fs:         afero.NewOsFs(),
			getenv:     os.Getenv,
			projectDir: viper.GetString("project"),
			stderr:     cmd.ErrOrStderr(),
		}
		runner.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
}

// hookRunner is one hook invocation.
type hookRunner struct {
	fs     afero.Fs
	getenv func(string) string
	// projectDir overrides resolution when set.
	projectDir string
	homeDir    string
	// tree replaces git in tests.
	tree   workflow.WorkingTree
	now    func() time.Time
	stderr io.Writer
}

func (r hookRunner) run(ctx context.Context, in io.Reader, out io.Writer) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, hookTimeout)
	defer cancel()

	ev, decodeErr := hook.Decode(in)

	cwd := ""
	if ev != nil {
		cwd = ev.Cwd
	}
	projectDir := r.projectDir
	if projectDir == "" {
		dir, err := hook.ResolveProjectDir(cwd, r.getenv, repo.FindGitRoot)
		if err != nil {
			fmt.Fprintf(r.stderr, "meridian: %v\n", err)
			return
		}
		projectDir = dir
	}

	cfg, cfgErr := config.Load(r.fs, projectDir)
	logger := r.openLogger(projectDir, cfg).WithInvocation(uuid.NewString())
	defer logger.Close()

	if cfgErr != nil {
		logger.Warn("config problems, affected fields use defaults", "error", cfgErr)
	}
	if decodeErr != nil {
		logger.LogError("ignoring hook input", decodeErr)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("hook panicked, allowing event", "event", string(ev.Name), "panic", fmt.Sprint(p))
		}
	}()

	env := &workflow.Env{
		Store:      statestore.New(r.fs, projectDir, logger),
		Config:     cfg,
		Fs:         r.fs,
		ProjectDir: projectDir,
		HomeDir:    r.homeDir,
		Tree:       r.tree,
		Logger:     logger,
		Now:        r.now,
	}
	if env.Tree == nil {
		env.Tree = repo.New(projectDir)
	}

	d := workflow.NewController(env).Handle(ctx, ev)
	if err := hook.Encode(out, ev.Name, d); err != nil {
		logger.LogError("write decision", err)
	}
}

// openLogger opens the rotated hook log, falling back to stderr.
func (r hookRunner) openLogger(projectDir string, cfg *config.Config) *logging.Logger {
	rotation := logging.RotationConfig{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}
	logger, err := logging.NewLoggerWithRotation(filepath.Join(projectDir, statestore.MeridianDir), cfg.LogLevel, rotation)
	if err != nil {
		fmt.Fprintf(r.stderr, "meridian: %v\n", err)
		logger, _ = logging.NewLogger("", cfg.LogLevel)
	}
	return logger
}
