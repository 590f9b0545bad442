package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tablemark/quickbar/pkg/host"
)

const sceneYAML = `
user_id: user-1
tokens:
  - id: tok-1
    name: Aria
    actor_id: a1
    owner_id: user-1
controlled: [tok-1]
encounter:
  active: true
  participants: [a1]
actors:
  - aria.yaml
  - broken.yaml
`

const actorYAML = `
id: a1
name: Aria
hp: {value: 22, max: 30}
prof: 3
abilities:
  str: {score: 10}
  dex: {score: 16, proficient: true}
items:
  - id: i1
    name: Rapier
    kind: weapon
    equipped: true
    proficient: true
  - id: i2
    name: Fire Bolt
    kind: spell
    level: 0
`

func writeCampaign(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"table.yaml":  sceneYAML,
		"aria.yaml":   actorYAML,
		"broken.yaml": "id: [not valid",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadCampaign(t *testing.T) {
	dir := writeCampaign(t)
	tbl, skipped, err := Load(dir, host.NewBus())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 (the broken sheet)", skipped)
	}

	tok, actor := tbl.ResolveToken("tok-1")
	if tok == nil || actor == nil {
		t.Fatal("loaded token did not resolve")
	}
	if actor.Name != "Aria" || len(actor.Items) != 2 {
		t.Errorf("actor loaded wrong: %+v", actor)
	}
	if actor.Abilities["dex"].Score != 16 {
		t.Errorf("abilities not parsed: %+v", actor.Abilities)
	}
	if enc := tbl.Encounter(); enc == nil || !enc.HasParticipant("a1") {
		t.Error("encounter not loaded")
	}
	if len(tbl.Controlled()) != 1 {
		t.Error("controlled selection not loaded")
	}
}

func TestLoadRequiresUserID(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "table.yaml"), []byte("tokens: []\nactors: []\n"), 0644)
	if _, _, err := Load(dir, host.NewBus()); err == nil {
		t.Error("missing user_id should fail")
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope"), host.NewBus()); err == nil {
		t.Error("missing table.yaml should fail")
	}
}

func TestLoadActorValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("id: a1\nname: ''\n"), 0644)
	if _, err := LoadActor(path); err == nil {
		t.Error("empty name should fail validation")
	}
}

func TestReloadSwapsContents(t *testing.T) {
	dir := writeCampaign(t)
	bus := host.NewBus()
	tbl, _, err := Load(dir, bus)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	updated := `
user_id: user-1
tokens:
  - id: tok-9
    name: Brin
    actor_id: a1
    owner_id: user-1
actors:
  - aria.yaml
`
	if err := os.WriteFile(filepath.Join(dir, "table.yaml"), []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	events := 0
	bus.Subscribe(func(host.Event) { events++ })
	if err := Reload(tbl, dir); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if tok, _ := tbl.ResolveToken("tok-9"); tok == nil {
		t.Error("reloaded token missing")
	}
	if tok, _ := tbl.ResolveToken("tok-1"); tok != nil {
		t.Error("stale token survived reload")
	}
	if events == 0 {
		t.Error("reload published no change events")
	}
}
