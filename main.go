package main

import "github.com/zhwir/offline-tx-validator/cmd"

func main() {
	cmd.Execute()
}
