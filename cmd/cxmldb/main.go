package main

import (
	"github.com/ssargent/cxmldb/cmd/cxmldb/cmd"
	"github.com/ssargent/cxmldb/pkg/di"
)

func main() {
	// Initialize dependency injection container
	container := di.NewContainer()

	// Inject dependencies into cmd package
	cmd.SetContainer(container)

	cmd.Execute()
}
