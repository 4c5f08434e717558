package main

import "github.com/Rrens/nlsql/cmd/exportctl/cmd"

func main() {
	cmd.Execute()
}
