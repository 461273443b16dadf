package catalog

import "testing"

func demoTestSchema() *Schema {
	return &Schema{
		Version: 1,
		Nodes: map[string]NodeSchema{
			"Person": {
				TableName:   "person",
				ColumnNames: []string{"id", "name", "age"},
				PrimaryKeys: []string{"id"},
				NodeID:      IDColumn{Column: "id", Dtype: "UInt64"},
			},
			"Company": {
				TableName:   "company",
				ColumnNames: []string{"id", "name"},
				PrimaryKeys: []string{"id"},
				NodeID:      IDColumn{Column: "id", Dtype: "UInt64"},
			},
		},
		Relationships: map[string]RelSchema{
			"WORKS_AT": {
				TableName: "works_at", FromNode: "Person", ToNode: "Company",
				ColumnNames: []string{"from_id", "to_id"},
			},
			"FRIEND": {
				TableName: "friend", FromNode: "Person", ToNode: "Person",
				ColumnNames: []string{"from_person", "to_person"},
			},
		},
	}
}

func TestGetNodeSchemaFound(t *testing.T) {
	s := demoTestSchema()
	ns, err := s.GetNodeSchema("Person")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ns.TableName != "person" {
		t.Errorf("expected table person, got %s", ns.TableName)
	}
}

func TestGetNodeSchemaNotFound(t *testing.T) {
	s := demoTestSchema()
	_, err := s.GetNodeSchema("Widget")
	if err == nil {
		t.Fatal("expected NotFoundError, got nil")
	}
	nf, ok := err.(*NotFoundError)
	if !ok {
		t.Fatalf("expected *NotFoundError, got %T", err)
	}
	if nf.Kind != "node" || nf.Label != "Widget" {
		t.Errorf("unexpected NotFoundError fields: %+v", nf)
	}
}

func TestGetRelSchema(t *testing.T) {
	s := demoTestSchema()
	if _, err := s.GetRelSchema("WORKS_AT"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.GetRelSchema("NOPE"); err == nil {
		t.Fatal("expected error for unknown relationship label")
	}
}

func TestRelsIncidentOn(t *testing.T) {
	s := demoTestSchema()
	labels := s.RelsIncidentOn("Company")
	if len(labels) != 1 || labels[0] != "WORKS_AT" {
		t.Errorf("expected [WORKS_AT], got %v", labels)
	}
}

func TestRelsBetween(t *testing.T) {
	s := demoTestSchema()
	labels := s.RelsBetween("Person", "Person")
	if len(labels) != 1 || labels[0] != "FRIEND" {
		t.Errorf("expected [FRIEND], got %v", labels)
	}
	labels = s.RelsBetween("Company", "Person")
	if len(labels) != 1 || labels[0] != "WORKS_AT" {
		t.Errorf("expected [WORKS_AT] in either order, got %v", labels)
	}
}

func TestHasColumn(t *testing.T) {
	s := demoTestSchema()
	ns, _ := s.GetNodeSchema("Person")
	if !ns.HasColumn("age") {
		t.Error("expected Person to have age column")
	}
	if ns.HasColumn("nonexistent") {
		t.Error("expected Person not to have nonexistent column")
	}
}
