package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Token(ctx context.Context) error
	Profile(ctx context.Context) error
	History(ctx context.Context) error
	Audit(ctx context.Context, args []string) error
	UploadAvatar(ctx context.Context, args []string) error
	DeleteAll(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF or "exit"/"quit".
//
//	Not logged in:
//	  - help             show available commands
//	  - login            paste a bearer token
//	  - token            mint a development token from the JWT secret
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - profile          show the decrypted profile
//	  - history          list symptom sessions with their messages
//	  - audit [n]        show the newest n audit entries
//	  - avatar <file>    upload a profile picture
//	  - delete-all       erase every record (asks for confirmation)
//	  - logout           forget the token
//
// Errors are reported by the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("tk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn("Available commands: login, token, exit")
			case "login":
				_ = a.Login(ctx)
			case "token":
				_ = a.Token(ctx)
			default:
				printlnFn("Unknown command:", cmd, "(log in first)")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn("Available commands: profile, history, audit [n], avatar <file>, delete-all, logout, exit")
		case "profile":
			_ = a.Profile(ctx)
		case "history", "h":
			_ = a.History(ctx)
		case "audit":
			_ = a.Audit(ctx, args)
		case "avatar":
			_ = a.UploadAvatar(ctx, args)
		case "delete-all":
			_ = a.DeleteAll(ctx)
		case "logout":
			_ = a.Logout(ctx)
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
