// The main package for the landing executable.
package main

import (
	"github.com/JakeFAU/mcatedge-landing/cmd"
)

func main() {
	cmd.Execute()
}
