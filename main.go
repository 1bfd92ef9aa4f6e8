package main

import (
	"fmt"
	"os"

	"github.com/jensroland/git-autocommit/cmd"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		cmd.RunAll(nil)
		return
	}

	switch os.Args[1] {
	case "commit":
		cmd.RunCommit(os.Args[2:])
	case "rebase":
		cmd.RunRebase(os.Args[2:])
	case "history":
		cmd.RunHistory(os.Args[2:])
	case "log":
		cmd.RunLog(os.Args[2:])
	case "hook":
		cmd.RunHook(os.Args[2:])
	case "help", "-h", "--help":
		cmd.Usage()
	case "--version":
		fmt.Println("git-autocommit", version)
	default:
		cmd.RunAll(os.Args[1:])
	}
}
