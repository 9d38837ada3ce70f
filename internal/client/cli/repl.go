package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Rename(ctx context.Context) error
	Delete(ctx context.Context) error
	Refresh(ctx context.Context) error
	Chat(ctx context.Context, text string) error
	System(ctx context.Context) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them. It returns on EOF
// or on "exit"/"quit". Errors from commands are reported and the loop goes
// on.
//
//	Not logged in:  register, login, status, help, exit
//	Logged in:      me, rename, delete, refresh, chat <text>, system, reset,
//	                logout, status, help, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("zia %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, rename, delete, refresh, chat <text>, system, reset, logout, status, exit")
			} else {
				printlnFn("Available commands: register, login, status, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "status":
			err = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "me", "rename", "delete", "refresh", "chat", "system", "reset", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			err = dispatchAuthed(ctx, a, cmd, args)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatchAuthed(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "me":
		return a.Me(ctx)
	case "rename":
		return a.Rename(ctx)
	case "delete":
		return a.Delete(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "chat":
		if len(args) == 0 {
			printlnFn("Usage: chat <text>")
			return nil
		}
		return a.Chat(ctx, strings.Join(args, " "))
	case "system":
		return a.System(ctx)
	case "reset":
		return a.Reset(ctx)
	default:
		return a.Logout(ctx)
	}
}
