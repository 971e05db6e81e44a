package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/clu/internal/execshell"
)

const (
	gitCloneSubcommandConstant          = "clone"
	gitCheckoutSubcommandConstant       = "checkout"
	gitForceCreateBranchFlagConstant    = "-B"
	gitConfigSubcommandConstant         = "config"
	gitPushDefaultKeyConstant           = "push.default"
	gitPushDefaultCurrentConstant       = "current"
	gitStatusSubcommandConstant         = "status"
	gitPorcelainFlagConstant            = "--porcelain"
	gitUntrackedFilesAllFlagConstant    = "--untracked-files=all"
	gitPushSubcommandConstant           = "push"
	gitForceWithLeaseFlagConstant       = "--force-with-lease"
	porcelainStatusPrefixLengthConstant = 3
	porcelainRenameSeparatorConstant    = " -> "
	porcelainQuoteConstant              = "\""
	lineSeparatorConstant               = "\n"

	managerRunnerNotConfiguredMessageConstant = "git command runner not configured"
	cloneErrorTemplateConstant                = "clone %s: %w"
	checkoutErrorTemplateConstant             = "checkout branch %s: %w"
	configureErrorTemplateConstant            = "configure push.default: %w"
	statusErrorTemplateConstant               = "read working tree status: %w"
	pushErrorTemplateConstant                 = "push with lease: %w"
)

// ErrGitCommandRunnerNotConfigured indicates the manager was constructed without a runner.
var ErrGitCommandRunnerNotConfigured = errors.New(managerRunnerNotConfiguredMessageConstant)

// GitCommandRunner runs git subcommands in a working directory, failing on non-zero exit codes.
type GitCommandRunner interface {
	RunGit(executionContext context.Context, arguments ...string) (execshell.ExecutionResult, error)
}

// RepositoryManager performs the git operations a migration needs against one working copy.
type RepositoryManager struct {
	runner GitCommandRunner
}

// NewRepositoryManager constructs a RepositoryManager backed by runner.
func NewRepositoryManager(runner GitCommandRunner) (*RepositoryManager, error) {
	if runner == nil {
		return nil, ErrGitCommandRunnerNotConfigured
	}
	return &RepositoryManager{runner: runner}, nil
}

// Clone clones cloneURL into destination relative to the runner's working directory.
func (manager *RepositoryManager) Clone(executionContext context.Context, cloneURL string, destination string) error {
	if _, runError := manager.runner.RunGit(executionContext, gitCloneSubcommandConstant, cloneURL, destination); runError != nil {
		return fmt.Errorf(cloneErrorTemplateConstant, cloneURL, runError)
	}
	return nil
}

// ResetBranch creates branchName at HEAD, replacing any existing branch of that name, and checks it out.
func (manager *RepositoryManager) ResetBranch(executionContext context.Context, branchName string) error {
	if _, runError := manager.runner.RunGit(executionContext, gitCheckoutSubcommandConstant, gitForceCreateBranchFlagConstant, branchName); runError != nil {
		return fmt.Errorf(checkoutErrorTemplateConstant, branchName, runError)
	}
	return nil
}

// ConfigurePushToCurrentBranch makes a bare push target the remote branch with the same name.
func (manager *RepositoryManager) ConfigurePushToCurrentBranch(executionContext context.Context) error {
	if _, runError := manager.runner.RunGit(executionContext, gitConfigSubcommandConstant, gitPushDefaultKeyConstant, gitPushDefaultCurrentConstant); runError != nil {
		return fmt.Errorf(configureErrorTemplateConstant, runError)
	}
	return nil
}

// WorkingTreeChanges lists paths with uncommitted or untracked changes.
func (manager *RepositoryManager) WorkingTreeChanges(executionContext context.Context) ([]string, error) {
	executionResult, runError := manager.runner.RunGit(executionContext, gitStatusSubcommandConstant, gitPorcelainFlagConstant, gitUntrackedFilesAllFlagConstant)
	if runError != nil {
		return nil, fmt.Errorf(statusErrorTemplateConstant, runError)
	}
	return parsePorcelainStatus(executionResult.StandardOutput), nil
}

// PushWithLease force-pushes the current branch, refusing when the remote branch moved since the last fetch.
func (manager *RepositoryManager) PushWithLease(executionContext context.Context) error {
	if _, runError := manager.runner.RunGit(executionContext, gitPushSubcommandConstant, gitForceWithLeaseFlagConstant); runError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, runError)
	}
	return nil
}

func parsePorcelainStatus(output string) []string {
	changedPaths := make([]string, 0)
	for _, line := range strings.Split(output, lineSeparatorConstant) {
		if len(strings.TrimSpace(line)) == 0 || len(line) <= porcelainStatusPrefixLengthConstant {
			continue
		}
		path := line[porcelainStatusPrefixLengthConstant:]
		if renameIndex := strings.Index(path, porcelainRenameSeparatorConstant); renameIndex >= 0 {
			path = path[renameIndex+len(porcelainRenameSeparatorConstant):]
		}
		path = strings.Trim(strings.TrimSpace(path), porcelainQuoteConstant)
		changedPaths = append(changedPaths, path)
	}
	return changedPaths
}
