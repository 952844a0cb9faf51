// Command taskflowctl administers a TaskFlow deployment: schema
// migrations, account provisioning and per-user statistics.
package main

import (
	"os"
	_ "time/tzdata"
)

func main() {
	os.Exit(execute())
}
