// Package render runs the external animation renderer as a subprocess.
//
// Each Render call spawns one process and buffers its stdout and stderr in
// memory until it exits. An adversarial script that prints without bound
// will grow those buffers without bound.
//
// Termination:
//   - With no timeout configured a render runs until the process exits
//   - When the timeout elapses or the context is cancelled, SIGTERM is sent
//   - After a 5 second grace period SIGKILL is sent if the process is alive
//
// Error kinds:
//   - Script missing → toolerr.KindNotFound
//   - Executable missing or not executable → toolerr.KindSpawn
//   - Non-zero exit → toolerr.KindRender, carrying stderr
//   - Timeout or cancellation → toolerr.KindRender
package render
