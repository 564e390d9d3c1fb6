// Copyright © 2024 Gjorgji J.

package main

import "registry-tag-cleaner/cmd"

func main() {
	cmd.Execute()
}
