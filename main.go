package main

import "github.com/LegacyCodeHQ/shaderinc/cmd"

func main() {
	cmd.Execute()
}
