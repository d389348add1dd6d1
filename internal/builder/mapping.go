package builder

// Transformation labels applied to mapping rows.
const (
	TransformationDirect = "Direct"
	TransformationManual = "Manual Mapping Required"
)

// MappingRow links a target attribute to the system it is sourced from.
type MappingRow struct {
	TargetAttribute string `json:"Target_Attribute"`
	SourceSystem    string `json:"Source_System"`
	SourceAttribute string `json:"Source_Attribute"`
	Transformation  string `json:"Transformation"`
}

// GenerateMapping builds one row per attribute, in attribute order. The source
// attribute always equals the target; rows whose source is unknown (or absent from
// sources) need a manual mapping.
func GenerateMapping(attributes []string, sources map[string]string) []MappingRow {
	rows := make([]MappingRow, 0, len(attributes))
	for _, attr := range attributes {
		source, ok := sources[attr]
		if !ok || source == "" {
			source = UnknownSource
		}
		transformation := TransformationDirect
		if source == UnknownSource {
			transformation = TransformationManual
		}
		rows = append(rows, MappingRow{
			TargetAttribute: attr,
			SourceSystem:    source,
			SourceAttribute: attr,
			Transformation:  transformation,
		})
	}
	return rows
}
