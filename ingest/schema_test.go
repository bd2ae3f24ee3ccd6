package ingest

import "testing"

func TestGenerateSchemaKnowledgeObject(t *testing.T) {
	t.Parallel()

	schema := GenerateSchema[KnowledgeObject]()
	if typ, _ := schema["type"].(string); typ != "object" {
		t.Fatalf("type=%v, want object", schema["type"])
	}
	if ap, ok := schema["additionalProperties"].(bool); !ok || ap {
		t.Fatalf("additionalProperties=%v, want false", schema["additionalProperties"])
	}

	props, ok := schema["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("properties missing: %v", schema)
	}
	for _, name := range []string{"paragraphId", "content", "entities", "knowledgeType", "importance"} {
		if _, ok := props[name]; !ok {
			t.Fatalf("property %q missing, have %v", name, props)
		}
	}
}

func TestArtifactSchemasComplete(t *testing.T) {
	t.Parallel()

	schemas := ArtifactSchemas()
	for _, name := range []string{
		"segment",
		"cleaned_paragraph",
		"knowledge_object",
		"chunk",
		"chunk_index_record",
		"quote_record",
		"glossary",
		"rules",
	} {
		schema, ok := schemas[name]
		if !ok {
			t.Fatalf("schema %q missing", name)
		}
		if len(schema) == 0 {
			t.Fatalf("schema %q is empty", name)
		}
	}

	names := ArtifactNames()
	if len(names) != len(schemas) {
		t.Fatalf("len(names)=%d, want %d", len(names), len(schemas))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}
