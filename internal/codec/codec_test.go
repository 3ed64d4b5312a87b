package codec

import (
	"testing"
)

type profile struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
	Score int      `json:"score"`
}

func TestConvertFromDecodedYAML(t *testing.T) {
	doc := []byte("name: ada\ntags: [a, b]\nscore: 3\n")
	var generic any
	if err := YAML.Unmarshal(doc, &generic); err != nil {
		t.Fatal(err)
	}

	p, err := Convert[profile](generic)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "ada" || len(p.Tags) != 2 || p.Score != 3 {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestConvertPassthroughAndNil(t *testing.T) {
	in := profile{Name: "x"}
	out, err := Convert[profile](in)
	if err != nil || out.Name != "x" {
		t.Errorf("passthrough failed: %+v %v", out, err)
	}

	zero, err := Convert[int](nil)
	if err != nil || zero != 0 {
		t.Errorf("nil should convert to zero value, got %v %v", zero, err)
	}
}

func TestConvertNormalizesInterfaceKeys(t *testing.T) {
	in := map[any]any{"name": "bob", "nested": map[any]any{1: "one"}}
	out, err := Convert[map[string]any](in)
	if err != nil {
		t.Fatal(err)
	}
	nested, ok := out["nested"].(map[string]any)
	if !ok || nested["1"] != "one" {
		t.Errorf("unexpected nested map %#v", out["nested"])
	}
}

func TestByName(t *testing.T) {
	for name, want := range map[string]string{"json": ".json", "yaml": ".yaml", "yml": ".yaml"} {
		c, err := ByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if c.Ext() != want {
			t.Errorf("%s: ext %s, want %s", name, c.Ext(), want)
		}
	}
	if _, err := ByName("toml"); err == nil {
		t.Errorf("expected error for unknown codec")
	}
}
