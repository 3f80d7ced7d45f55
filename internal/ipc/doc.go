// Package ipc implements the control channel between the vlog CLI and the
// daemon: JSON-RPC over a Unix domain socket.
package ipc
