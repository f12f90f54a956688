package main

import "github.com/frahmantamala/tdy-voucher/cmd"

func main() {
	cmd.Execute()
}
