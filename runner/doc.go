// Package runner executes live test cases against the scanning engine.
//
// CaseExecutor runs a single resolved case in its own working directory and
// classifies the engine result into a types.Outcome. LiveTestRunner loads a suite,
// selects cases, drives the executor sequentially and persists diagnostics for
// every failing case.
package runner
