package gen

import "schemadrift/internal/common"

// Generated file names.
const (
	EnumsFile   = "enums_gen.go"
	RecordsFile = "records_gen.go"
	SchemasFile = "schemas_gen.go"
)

// DefaultHeaderOrder is the preferred order of well-known header keys.
var DefaultHeaderOrder = []string{
	"server_name",
	"demo_file_stamp",
	"network_protocol",
	"map_name",
	"fullpackets_version",
	"allow_clientside_entities",
	"allow_clientside_particles",
	"demo_version_name",
	"demo_version_guid",
	"client_name",
	"game_directory",
	"addons",
}

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// PackageName is the name of the generated package. Derived from OutputDir when empty.
	PackageName string
	// OutputDir is the directory where generated files are written.
	OutputDir string
	// CategoryEnum is the type name of the category enum.
	CategoryEnum string
	// FieldEnum is the type name of the primitive field enum.
	FieldEnum string
	// HeaderOrder lists header keys that come first, in this order.
	HeaderOrder []string
	// DottedHeaderKeys are header keys holding '.'-separated lists.
	DottedHeaderKeys []string
	// StrictSchemas rejects properties not present in the snapshot.
	StrictSchemas bool
	// StrictIdentifiers fails generation on identifier collisions instead of renaming.
	StrictIdentifiers bool
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		OutputDir:        "./generated",
		CategoryEnum:     "Category",
		FieldEnum:        "Field",
		HeaderOrder:      DefaultHeaderOrder,
		DottedHeaderKeys: []string{"addons"},
		StrictSchemas:    true,
	}
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	def := DefaultGeneratorConfig()
	if c.PackageName == "" {
		c.PackageName = common.PkgName(c.OutputDir)
	}

	if c.CategoryEnum == "" {
		c.CategoryEnum = def.CategoryEnum
	}

	if c.FieldEnum == "" {
		c.FieldEnum = def.FieldEnum
	}

	return c
}
