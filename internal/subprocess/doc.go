// Package subprocess implements the default transport: it owns the bkmr
// server child process, frames protocol traffic over its stdio pipes, and
// drains stderr in the background.
package subprocess
