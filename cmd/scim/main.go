// Command scim parses SCIM filters and attribute paths, selects JSON resources with filters and applies SCIM
// PATCH requests to resources.
package main

import "os"

func main() {
	os.Exit(Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
