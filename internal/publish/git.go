package publish

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// StagedPatterns are the paths force-added on every bulk publish.
var StagedPatterns = []string{
	"day-*.csv",
	"6-day-avg.csv",
	"data/*_backup/",
	"data/weekly-avg/",
	"data/monthly-avg/",
	"*-yearly.csv",
}

// CommandRunner runs git in dir and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		cmdErr := &CommandError{Args: args, Output: string(out), ExitCode: -1, Err: err}
		if exitErr, ok := err.(*exec.ExitError); ok {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return string(out), cmdErr
	}
	return string(out), nil
}

type GitConfig struct {
	Dir       string
	Token     string
	Repo      string
	Branch    string
	UserName  string
	UserEmail string
}

// GitPublisher mirrors the data directory into a git remote through the git CLI.
type GitPublisher struct {
	cfg    GitConfig
	runner CommandRunner
	logger *zap.Logger
}

func NewGitPublisher(cfg GitConfig, runner CommandRunner, logger *zap.Logger) *GitPublisher {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &GitPublisher{cfg: cfg, runner: runner, logger: logger}
}

// Prepare syncs the working tree with the remote branch so earlier slot files are present.
// A remote without the branch starts a fresh one.
func (g *GitPublisher) Prepare(ctx context.Context) error {
	g.logger.Info("setting up git", zap.String("repo", g.cfg.Repo), zap.String("branch", g.cfg.Branch))

	if _, err := g.run(ctx, "init"); err != nil {
		return errors.Wrap(err, "git init")
	}
	g.runIgnored(ctx, "remote", "remove", "origin")
	if _, err := g.run(ctx, "remote", "add", "origin", RemoteURL(g.cfg.Token, g.cfg.Repo)); err != nil {
		return errors.Wrap(err, "git remote add")
	}
	if g.cfg.UserName != "" {
		g.runIgnored(ctx, "config", "user.name", g.cfg.UserName)
	}
	if g.cfg.UserEmail != "" {
		g.runIgnored(ctx, "config", "user.email", g.cfg.UserEmail)
	}

	if _, err := g.run(ctx, "fetch", "origin", g.cfg.Branch); err != nil {
		g.logger.Warn("fetch failed, starting a new branch", zap.Error(err))
		if _, err := g.run(ctx, "checkout", "-B", g.cfg.Branch); err != nil {
			return errors.Wrap(err, "git checkout")
		}
		return nil
	}
	if _, err := g.run(ctx, "checkout", "-f", "-B", g.cfg.Branch, "origin/"+g.cfg.Branch); err != nil {
		return errors.Wrap(err, "git checkout")
	}
	g.logger.Info("git setup complete")
	return nil
}

// Publish stages the data files, commits them with message and pushes.
// It returns ErrNothingToCommit when nothing changed since the last commit.
func (g *GitPublisher) Publish(ctx context.Context, message string) error {
	for _, pattern := range StagedPatterns {
		g.runIgnored(ctx, "add", "-f", pattern)
	}

	out, err := g.run(ctx, "commit", "-m", message)
	if err != nil {
		if strings.Contains(out, "nothing to commit") || strings.Contains(out, "nothing added to commit") {
			g.logger.Info("nothing new to commit")
			return ErrNothingToCommit
		}
		return errors.Wrap(err, "git commit")
	}

	if _, err := g.run(ctx, "push", "origin", g.cfg.Branch); err != nil {
		g.logger.Warn("push rejected, trying force push", zap.Error(err))
		if _, err := g.run(ctx, "push", "origin", g.cfg.Branch, "--force"); err != nil {
			return errors.Wrap(err, "git push --force")
		}
		g.logger.Info("force pushed", zap.String("branch", g.cfg.Branch))
		return nil
	}
	g.logger.Info("pushed", zap.String("branch", g.cfg.Branch))
	return nil
}

func (g *GitPublisher) run(ctx context.Context, args ...string) (string, error) {
	g.logger.Debug("git", zap.String("args", g.redact(strings.Join(args, " "))))
	out, err := g.runner.Run(ctx, g.cfg.Dir, args...)
	if err != nil {
		return out, g.redactError(err)
	}
	return out, nil
}

func (g *GitPublisher) runIgnored(ctx context.Context, args ...string) {
	if _, err := g.run(ctx, args...); err != nil {
		g.logger.Debug("ignored git failure", zap.Error(err))
	}
}

func (g *GitPublisher) redact(s string) string {
	if g.cfg.Token == "" {
		return s
	}
	return strings.ReplaceAll(s, g.cfg.Token, "***")
}

func (g *GitPublisher) redactError(err error) error {
	cmdErr, ok := err.(*CommandError)
	if !ok || g.cfg.Token == "" {
		return err
	}
	args := make([]string, len(cmdErr.Args))
	for i, a := range cmdErr.Args {
		args[i] = g.redact(a)
	}
	return &CommandError{Args: args, Output: g.redact(cmdErr.Output), ExitCode: cmdErr.ExitCode, Err: cmdErr.Err}
}
