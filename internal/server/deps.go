package server

import (
	"github.com/rangulvers/wikigraph/internal/persistence"
	"github.com/rangulvers/wikigraph/internal/search"
)

// Dependencies are the capabilities the transport layer needs. It
// holds no business logic itself; every field is constructed in
// cmd/pathfinder/main.go and handed down.
type Dependencies struct {
	Engine  *search.Engine
	Persist persistence.Adapter
}
