package execshell

// CommandEventObserver hears about every command a ShellExecutor runs. Console output
// for operators is built on it; structured logs are written by the executor itself.
type CommandEventObserver interface {
	CommandStarted(command ShellCommand)
	// CommandCompleted receives the result for any exit code, zero or not.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the process could not be run at all.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type discardingCommandEventObserver struct{}

func (discardingCommandEventObserver) CommandStarted(ShellCommand)                    {}
func (discardingCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}
func (discardingCommandEventObserver) CommandExecutionFailed(ShellCommand, error)     {}
