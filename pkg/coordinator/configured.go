package coordinator

import (
	"github.com/levenlabs/go-lflag"

	"github.com/lenedabridge/lenedabridge/pkg/config"
	"github.com/lenedabridge/lenedabridge/pkg/leneda"
	"github.com/lenedabridge/lenedabridge/pkg/storage"
)

// Configured sets up the Coordinator over the metering points loaded from
// flags.
func Configured(client leneda.Client, store storage.Store) *Coordinator {
	points := config.Configured()

	c := New(client, store, nil)

	lflag.Do(func() {
		c.points = *points
	})

	return c
}
