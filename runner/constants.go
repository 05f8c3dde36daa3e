package runner

const (
	// WorkDirPrefix prefixes every per-case working directory.
	WorkDirPrefix = "livetest-"

	TestCaseFile      = "test_case"
	ConsoleOutputFile = "console_output"
	TracebackFile     = "traceback"
)
