// Package main plan-cli 命令行入口
package main

import "ideaplan-api/internal/cli"

func main() {
	cli.Execute()
}
