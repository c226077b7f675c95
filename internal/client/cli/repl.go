package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	List(ctx context.Context) error
	Set(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	SyncID(ctx context.Context, args []string) error
	GenSync(ctx context.Context) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	Export(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
}

const helpText = `Available commands:
  (l)ist | show                          print the table
  set <DD.MM> <morning|evening|pain> <v>  edit one field
  clear <DD.MM>                          empty one day
  syncid [<id>]                          show or set the sync id
  gensync                                generate a new sync id
  sync                                   push now
  status                                 show sync status
  export json|pdf [path]                 write a file
  import <path>                          replace the table from JSON
  exit | quit                            leave`

// runREPL reads commands line by line and dispatches them to a.
//
// promptFn is called before each line; an empty result prints no prompt,
// which keeps piped input quiet. Command errors are printed and the loop
// goes on. It returns on EOF or on exit/quit.
func runREPL(ctx context.Context, a execIface, promptFn func() string, scanner *bufio.Scanner) {
	for {
		if p := promptFn(); p != "" {
			printlnFn(p)
		}
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
			printlnFn(helpText)

		case "l", "list", "show":
			err = a.List(ctx)

		case "set":
			err = a.Set(ctx, args)

		case "clear":
			err = a.Clear(ctx, args)

		case "syncid":
			err = a.SyncID(ctx, args)

		case "gensync":
			err = a.GenSync(ctx)

		case "sync":
			err = a.Sync(ctx)

		case "status":
			err = a.Status(ctx)

		case "export":
			err = a.Export(ctx, args)

		case "import":
			err = a.Import(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
