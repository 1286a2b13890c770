package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/projectbackdoor/game-server/pkg/world"
)

// Validates the world data directory before it ships: strict JSON,
// snake_case identifiers, and cross-references between scenes, NPCs
// and objects.
func main() {
	dataDir := "./data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	validator := &WorldValidator{dataDir: dataDir}
	if err := validator.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("World data is valid!")
}

type WorldValidator struct {
	dataDir string
	errors  []string

	scenes  map[string]*world.Scene
	npcs    map[string]struct{}
	objects map[string]*world.GameObject
}

var cardinalDirections = map[string]bool{
	"north": true,
	"south": true,
	"east":  true,
	"west":  true,
}

func (v *WorldValidator) validate() error {
	v.scenes = make(map[string]*world.Scene)
	v.npcs = make(map[string]struct{})
	v.objects = make(map[string]*world.GameObject)

	if err := v.loadAll(); err != nil {
		return err
	}

	if len(v.scenes) == 0 {
		return fmt.Errorf("no scene files found under %s", filepath.Join(v.dataDir, "scenes"))
	}

	for id, scene := range v.scenes {
		v.validateScene(id, scene)
	}
	for id, obj := range v.objects {
		v.validateObject(id, obj)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *WorldValidator) loadAll() error {
	if err := v.loadDir("scenes", func(id string, data []byte) error {
		var s world.Scene
		if err := strictUnmarshal(data, &s); err != nil {
			return err
		}
		s.ID = id
		v.scenes[id] = &s
		return nil
	}); err != nil {
		return err
	}

	if err := v.loadDir("npcs", func(id string, data []byte) error {
		var npc world.NPC
		if err := strictUnmarshal(data, &npc); err != nil {
			return err
		}
		v.npcs[id] = struct{}{}
		return nil
	}); err != nil {
		return err
	}

	return v.loadDir("objects", func(id string, data []byte) error {
		var obj world.GameObject
		if err := strictUnmarshal(data, &obj); err != nil {
			return err
		}
		v.objects[id] = &obj
		return nil
	})
}

func (v *WorldValidator) loadDir(kind string, load func(id string, data []byte) error) error {
	dir := filepath.Join(v.dataDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s directory: %w", kind, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		if !isValidID(id) {
			v.addError(fmt.Sprintf("%s filename '%s' should be lowercase snake_case", kind, entry.Name()))
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", path, err)
		}
		if err := load(id, data); err != nil {
			return fmt.Errorf("file %s: %w", path, err)
		}
	}
	return nil
}

func (v *WorldValidator) validateScene(id string, scene *world.Scene) {
	if scene.Description == "" {
		v.addError(fmt.Sprintf("scene '%s' has no description", id))
	}

	for _, direction := range scene.Details.AllowedDirections {
		if !cardinalDirections[direction] {
			v.addError(fmt.Sprintf("scene '%s' allows non-cardinal direction '%s'", id, direction))
		}
	}

	if err := scene.Validate(); err != nil {
		v.addError(err.Error())
	}

	for direction, destination := range scene.Details.Exits {
		if _, ok := v.scenes[destination]; !ok {
			v.addError(fmt.Sprintf("scene '%s' exit '%s' points to unknown scene '%s'", id, direction, destination))
		}
	}

	for _, npcID := range scene.Details.NPCs {
		if !world.IsNPCID(npcID) {
			v.addError(fmt.Sprintf("scene '%s' NPC '%s' does not follow the npc_ naming convention", id, npcID))
		}
		if _, ok := v.npcs[npcID]; !ok {
			v.addError(fmt.Sprintf("scene '%s' references unknown NPC '%s'", id, npcID))
		}
	}

	for _, objectID := range scene.Details.Objects {
		if _, ok := v.objects[objectID]; !ok {
			v.addError(fmt.Sprintf("scene '%s' references unknown object '%s'", id, objectID))
		}
	}
}

func (v *WorldValidator) validateObject(id string, obj *world.GameObject) {
	if obj.Description == "" {
		v.addError(fmt.Sprintf("object '%s' has no description", id))
	}
	if obj.Scene != "" {
		if _, ok := v.scenes[obj.Scene]; !ok {
			v.addError(fmt.Sprintf("object '%s' placed in unknown scene '%s'", id, obj.Scene))
		}
	}
}

func (v *WorldValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func strictUnmarshal(data []byte, target any) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}
