package main

import (
	"musee/cmd"
)

func main() {
	cmd.Execute()
}
