// Package metrics exports zone, faucet and controller state as DogStatsD
// gauges for the monitor command.
//
// Names are prefixed with the configured namespace ("raincloud." by
// default) and tagged controller:<serial>, faucet:<serial> and zone:<id>.
package metrics
