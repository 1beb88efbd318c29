package main

import (
	"os"

	"github.com/msto63/itemdb/cmd/itemdb/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
