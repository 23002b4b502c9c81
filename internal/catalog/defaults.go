package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
)

//go:embed catalog.json
var defaultCatalogJSON []byte

// Default returns the built-in engine catalog. The embedded data is
// fixed at build time, so a decode failure is a programmer error.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalogJSON))
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog invalid: %v", err))
	}
	return c
}
