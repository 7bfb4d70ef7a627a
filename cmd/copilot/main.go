package main

import "github.com/preston-fay/televantage-copilot/internal/cli"

func main() {
	cli.Execute()
}
