package main

import (
	cmd "github.com/kerbaras/novelist/cmd/novelist"
)

func main() {
	cmd.Execute()
}
