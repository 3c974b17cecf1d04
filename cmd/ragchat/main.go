// Command ragchat is a terminal client for a streaming RAG chat server.
package main

import "github.com/diogo/ragchat/internal/commands"

func main() {
	commands.Execute()
}
