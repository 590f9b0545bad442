package table

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/model"
)

// sceneFile is the on-disk shape of table.yaml.
type sceneFile struct {
	UserID     string           `yaml:"user_id"`
	Tokens     []*model.Token   `yaml:"tokens"`
	Controlled []string         `yaml:"controlled,omitempty"`
	Encounter  *model.Encounter `yaml:"encounter,omitempty"`
	// Actors lists actor file names relative to the campaign directory.
	Actors []string `yaml:"actors"`
}

// Load reads a campaign directory: table.yaml plus the actor files it
// references. Actor files that fail to parse are skipped so one bad
// sheet does not take down the whole table; Load reports how many were
// skipped through the returned count.
func Load(dir string, bus *host.Bus) (*Table, int, error) {
	scenePath := filepath.Join(dir, "table.yaml")
	data, err := os.ReadFile(scenePath)
	if err != nil {
		return nil, 0, fmt.Errorf("read table file: %w", err)
	}

	var scene sceneFile
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", scenePath, err)
	}
	if scene.UserID == "" {
		return nil, 0, fmt.Errorf("%s: user_id is required", scenePath)
	}

	actors := map[string]*model.Actor{}
	skipped := 0
	for _, name := range scene.Actors {
		actor, err := LoadActor(filepath.Join(dir, name))
		if err != nil {
			skipped++
			continue
		}
		actors[actor.ID] = actor
	}

	t := New(scene.UserID, bus)
	t.mu.Lock()
	t.tokens = scene.Tokens
	t.actors = actors
	t.controlled = scene.Controlled
	t.encounter = scene.Encounter
	t.mu.Unlock()
	return t, skipped, nil
}

// LoadActor reads and validates a single actor sheet.
func LoadActor(path string) (*model.Actor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read actor file: %w", err)
	}
	var actor model.Actor
	if err := yaml.Unmarshal(data, &actor); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := actor.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &actor, nil
}

// Reload re-reads the campaign directory into an existing table,
// replacing its contents and publishing change events. Used by the
// file watcher when another tool edits the campaign files.
func Reload(t *Table, dir string) error {
	scenePath := filepath.Join(dir, "table.yaml")
	data, err := os.ReadFile(scenePath)
	if err != nil {
		return fmt.Errorf("read table file: %w", err)
	}
	var scene sceneFile
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return fmt.Errorf("parse %s: %w", scenePath, err)
	}

	actors := map[string]*model.Actor{}
	for _, name := range scene.Actors {
		actor, err := LoadActor(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		actors[actor.ID] = actor
	}
	t.Replace(scene.Tokens, actors, scene.Encounter)
	return nil
}
