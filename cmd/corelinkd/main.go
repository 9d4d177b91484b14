// Command corelinkd runs a CoreLink cluster-membership gossip node.
package main

import "github.com/corelink/gossipd/cmd/corelinkd/cmd"

func main() {
	cmd.Execute()
}
