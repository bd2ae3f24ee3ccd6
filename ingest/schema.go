package ingest

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON Schema for a pipeline artifact type. Objects
// forbid unknown properties so downstream validators reject drift.
func GenerateSchema[T any]() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)
	m, err := schemaToMap(schema)
	if err != nil {
		panic(err)
	}
	return m
}

func schemaToMap(schema *jsonschema.Schema) (map[string]interface{}, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ArtifactSchemas returns the schemas of the boundary artifacts keyed by
// artifact name.
func ArtifactSchemas() map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		"segment":            GenerateSchema[Segment](),
		"cleaned_paragraph":  GenerateSchema[CleanedParagraph](),
		"knowledge_object":   GenerateSchema[KnowledgeObject](),
		"chunk":              GenerateSchema[Chunk](),
		"chunk_index_record": GenerateSchema[ChunkIndexRecord](),
		"quote_record":       GenerateSchema[QuoteRecord](),
		"glossary":           GenerateSchema[Glossary](),
		"rules":              GenerateSchema[Rules](),
	}
}

// ArtifactNames lists the artifact schema names in stable order.
func ArtifactNames() []string {
	schemas := ArtifactSchemas()
	names := make([]string, 0, len(schemas))
	for name := range schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
