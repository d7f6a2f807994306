package main

import "github.com/frahmantamala/discharge-registry/cmd"

func main() {
	cmd.Execute()
}
