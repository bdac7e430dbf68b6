package main

import (
	"os"

	"github.com/riwaht/notion-revolut-server/cmd/categorize"
	ledgercmd "github.com/riwaht/notion-revolut-server/cmd/ledger"
	"github.com/riwaht/notion-revolut-server/cmd/retry"
	"github.com/riwaht/notion-revolut-server/cmd/root"
	synccmd "github.com/riwaht/notion-revolut-server/cmd/sync"
)

func main() {
	root.Cmd.AddCommand(synccmd.Cmd)
	root.Cmd.AddCommand(retry.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(ledgercmd.Cmd)

	if err := root.Cmd.Execute(); err != nil {
		root.Log.Error(err)
		os.Exit(1)
	}
}
