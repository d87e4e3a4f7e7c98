package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Whoami() error
	Search(ctx context.Context, args []string) error
	List(args []string) error
	Edit(ctx context.Context, args []string) error
	Filter(args []string) error
	Status(ctx context.Context) error
	Sync(ctx context.Context) error
	Stats(args []string) error
	Clear(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: login, help, exit"
	helpLoggedIn  = `Available commands:
  search <city>[, <province>[, <country>]]   load the addresses of a city
  list [all|<n>]                              show the current rows
  edit <row> <field> [value]                  set a field (visited, date, status, interest, contact, notes, followup)
  filter [q=..] [from=N] [to=N] [status=..] [visited=..] [interest=..] [stored]
  status | sync | stats [days] | clear | whoami | logout | exit`
)

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit"/"quit". Errors from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("canvasser (%s)> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "login":
		return a.Login(ctx, args)
	}

	if !a.isLoggedIn() {
		if isKnown(cmd) {
			printlnFn("Please log in first.")
		} else {
			printlnFn("Unknown command:", cmd)
		}
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "whoami", "user":
		return a.Whoami()
	case "search", "s":
		return a.Search(ctx, args)
	case "list", "l":
		return a.List(args)
	case "edit", "e":
		return a.Edit(ctx, args)
	case "filter", "f":
		return a.Filter(args)
	case "status":
		return a.Status(ctx)
	case "sync":
		return a.Sync(ctx)
	case "stats":
		return a.Stats(args)
	case "clear":
		return a.Clear(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func isKnown(cmd string) bool {
	switch cmd {
	case "logout", "whoami", "user", "search", "s", "list", "l", "edit", "e",
		"filter", "f", "status", "sync", "stats", "clear":
		return true
	}
	return false
}
