package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/golang/glog"
	"golang.org/x/xerrors"
)

const (
	builtInGroup     = "Built-in Scenes"
	sceneFileGroup   = "Scene Files"
	sceneTypeBuiltin = "builtin"
	sceneTypeYAML    = "yaml"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "yaml"
	FilePath    string `json:"filePath"`    // Path to scene file (yaml type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// Builder constructs a built-in scene. Randomized scenes draw from a sampler
// seeded with seed; the others ignore it.
type Builder func(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene

type builtInScene struct {
	info  SceneInfo
	build Builder
}

var builtInScenes = []builtInScene{
	{
		info: SceneInfo{
			ID:          "random-spheres",
			Name:        "Random Spheres",
			DisplayName: "Random Spheres",
			Description: "Field of small random spheres around glass, diffuse and metal spheres",
		},
		build: func(seed int64, cameraOverrides ...renderer.CameraConfig) *Scene {
			return NewRandomSpheresScene(core.NewSeededSampler(seed), cameraOverrides...)
		},
	},
	{
		info: SceneInfo{
			ID:          "three-spheres",
			Name:        "Three Spheres",
			DisplayName: "Three Spheres",
			Description: "Diffuse sphere between hollow glass and gold spheres",
		},
		build: func(_ int64, cameraOverrides ...renderer.CameraConfig) *Scene {
			return NewThreeSpheresScene(cameraOverrides...)
		},
	},
	{
		info: SceneInfo{
			ID:          "single-sphere",
			Name:        "Single Sphere",
			DisplayName: "Single Sphere",
			Description: "One diffuse sphere against the sky",
		},
		build: func(_ int64, cameraOverrides ...renderer.CameraConfig) *Scene {
			return NewSingleSphereScene(cameraOverrides...)
		},
	},
}

// Lookup returns the builder of the built-in scene with the given id
func Lookup(id string) (Builder, bool) {
	for _, s := range builtInScenes {
		if s.info.ID == id {
			return s.build, true
		}
	}
	return nil, false
}

// Names returns the ids of all built-in scenes, sorted
func Names() []string {
	names := make([]string, 0, len(builtInScenes))
	for _, s := range builtInScenes {
		names = append(names, s.info.ID)
	}
	sort.Strings(names)
	return names
}

// ListBuiltInScenes returns metadata for every built-in scene
func ListBuiltInScenes() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(builtInScenes))
	for _, s := range builtInScenes {
		info := s.info
		info.Group = builtInGroup
		info.Type = sceneTypeBuiltin
		scenes = append(scenes, info)
	}
	return scenes
}

// ListYAMLScenes scans dir for scene description files. An empty dir
// searches "scenes" and "../scenes"; a missing directory yields no scenes.
func ListYAMLScenes(dir string) ([]SceneInfo, error) {
	scenesDir := dir
	if scenesDir == "" {
		for _, path := range []string{"scenes", "../scenes"} {
			if _, err := os.Stat(path); err == nil {
				scenesDir = path
				break
			}
		}
	}
	if scenesDir == "" {
		return []SceneInfo{}, nil
	}
	if _, err := os.Stat(scenesDir); os.IsNotExist(err) {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(scenesDir, pattern))
		if err != nil {
			return nil, xerrors.Errorf("while scanning scenes directory %s: %w", scenesDir, err)
		}
		files = append(files, matches...)
	}

	scenes := []SceneInfo{}
	for _, filePath := range files {
		sceneInfo, err := ParseYAMLMetadata(filePath)
		if err != nil {
			glog.Warningf("Failed to parse metadata for %s: %v", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseYAMLMetadata extracts metadata from the header comments of a scene
// file, falling back to values derived from the file name
func ParseYAMLMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	sceneInfo := SceneInfo{
		ID:          fmt.Sprintf("yaml:%s", nameWithoutExt),
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       sceneFileGroup,
		Type:        sceneTypeYAML,
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		// Unreadable files are still listed; loading them reports the error
		return sceneInfo, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Stop parsing at first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		switch {
		case strings.HasPrefix(content, "Scene:"):
			sceneInfo.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Variant:"):
			sceneInfo.Variant = strings.TrimSpace(strings.TrimPrefix(content, "Variant:"))
		case strings.HasPrefix(content, "Description:"):
			sceneInfo.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		case strings.HasPrefix(content, "Group:"):
			sceneInfo.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
		}
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns both built-in scenes and the scene files in dir,
// grouped by category with the built-in group first
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	yamlScenes, err := ListYAMLScenes(dir)
	if err != nil {
		return response, xerrors.Errorf("while listing scene files: %w", err)
	}

	allScenes := append(ListBuiltInScenes(), yamlScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtInGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if scenes, exists := groupMap[builtInGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   builtInGroup,
			Scenes: scenes,
		})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
