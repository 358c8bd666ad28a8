package registry

import _ "embed"

// defaultCatalog is the compiled-in agent catalog, used when no catalog file
// is configured. Override with `registry.file` in the app config.
//
//go:embed defaults.yaml
var defaultCatalog []byte
