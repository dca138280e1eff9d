// Command samarth is the Samarth AI agricultural and climate data assistant.
package main

import "github.com/diogo/samarth/internal/commands"

func main() {
	commands.Execute()
}
