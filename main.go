// Package main provides the entry point for the Discord DJ relay bot.
package main

import "github.com/Raikerian/go-discord-dj/cmd"

func main() {
	cmd.Execute()
}
