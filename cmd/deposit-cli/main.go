package main

import "deposit-core/cmd/deposit-cli/cmd"

func main() {
	cmd.Execute()
}
