// Command dbcon runs statements against the database described by a YAML
// config file and prints the result as YAML.
//
//	dbcon --config db.yaml get users --select "id, name" --where active=1 --limit 10
//	dbcon --config db.yaml query "SELECT COUNT(*) AS n FROM users"
//	dbcon --config db.yaml exec "DELETE FROM sessions" --where user_id=7
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
