// Package cli provides the interactive zia command-line client.
//
// It wires configuration, the local session store, the API services and a
// REPL. On start it tries to resume the saved session, then probes server
// health in the background and shows the result in the prompt.
//
// Commands:
//   - register / login / logout
//   - me / rename / delete / refresh
//   - chat, system, reset
//   - status, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
