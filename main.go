package main

import "github.com/frahmantamala/iyzipay-checkout/cmd"

func main() {
	cmd.Execute()
}
