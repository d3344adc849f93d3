package cli

import "testing"

func TestIsYAML(t *testing.T) {
	cases := map[string]bool{
		"seed.yaml": true,
		"seed.yml":  true,
		"seed.json": false,
		"seed":      false,
	}
	for name, want := range cases {
		if got := isYAML(name); got != want {
			t.Errorf("isYAML(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestHasSuffix(t *testing.T) {
	if !hasSuffix("dump.yaml", ".yaml") {
		t.Error("expected dump.yaml to have suffix .yaml")
	}
	if hasSuffix("dump.yaml", ".yamlx") {
		t.Error("suffix longer than the string should not match")
	}
	if hasSuffix("short", ".yaml") {
		t.Error("a string shorter than the suffix should not match")
	}
}

func TestParseSeedData_JSON(t *testing.T) {
	data := []byte(`{"products": [{"name": "Widget", "price": 9.99}]}`)
	seed, err := parseSeedData("seed.json", data)
	if err != nil {
		t.Fatalf("parseSeedData failed: %v", err)
	}
	if len(seed["products"]) != 1 {
		t.Fatalf("products = %+v, want 1 document", seed["products"])
	}
	if seed["products"][0]["name"] != "Widget" {
		t.Errorf("name = %v, want Widget", seed["products"][0]["name"])
	}
}

func TestParseSeedData_YAML(t *testing.T) {
	data := []byte("products:\n  - name: Widget\n    price: 9.99\n")
	seed, err := parseSeedData("seed.yaml", data)
	if err != nil {
		t.Fatalf("parseSeedData failed: %v", err)
	}
	if len(seed["products"]) != 1 {
		t.Fatalf("products = %+v, want 1 document", seed["products"])
	}
}

func TestParseSeedData_RejectsMalformedJSON(t *testing.T) {
	if _, err := parseSeedData("seed.json", []byte("{not json")); err == nil {
		t.Fatal("expected malformed JSON to be rejected")
	}
}
