// Package ui renders terminal output for the raincloud CLI with Lipgloss.
//
// Components:
//
//   - Header: banner naming the command and the faucet/zone it acts on
//   - Result: success, warning and failure boxes; failures carry the
//     troubleshooting tips of the portal error
//   - RenderTree, RenderLabeledTree: the controller/faucet/zone tree of the
//     show command, with local nicknames and zone labels
//   - Confirm: yes/no prompt before long runs or overwriting the config
//   - Progress: login steps with a progress bar, animated by RunProgress
//   - MonitorModel: the Bubble Tea screen of the monitor command
//
// Output is plain text when stdout is not a terminal, so --format detailed
// stays readable in pipes and logs. Logging goes to stderr through
// internal/logging and is silent unless RAINCLOUD_LOG_LEVEL is set.
package ui
