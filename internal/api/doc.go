// Package api defines the JSON payloads shared by the daemon's HTTP surface
// and the IPC control channel, plus converters from internal types.
package api
