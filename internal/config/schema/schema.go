package schema

import _ "embed"

//go:embed os-package-search-config.schema.json
var ConfigSchema []byte

//go:embed conda-repodata.schema.json
var RepodataSchema []byte

//go:embed package-index.schema.json
var PackageIndexSchema []byte
