package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
)

// FileName is the manifest file inside the steamapps directory.
const FileName = "libraryfolders.vdf"

const rootKey = "libraryfolders"

// ErrMalformed means the document parsed but does not have the manifest shape.
var ErrMalformed = errors.New("malformed library manifest")

// Folder is one Steam library location.
type Folder struct {
	Path  string
	Label string
	// Apps maps app id to installed size in bytes.
	Apps map[uint64]uint64
}

// Library is the parsed manifest keyed by folder index ("0", "1", ...).
type Library struct {
	Folders map[string]Folder
	// Skipped counts app keys that were not numeric ids.
	Skipped int
}

// DefaultPath returns the usual manifest location for the running platform.
func DefaultPath() (string, error) {
	if runtime.GOOS == "windows" {
		return filepath.Join(`C:\Program Files (x86)\Steam`, "steamapps", FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "Steam", "steamapps", FileName), nil
	}
	return filepath.Join(home, ".steam", "steam", "steamapps", FileName), nil
}

// Load reads and parses the manifest at path.
func Load(path string) (Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return Library{}, fmt.Errorf("open library manifest: %w", err)
	}
	defer f.Close()

	doc, err := vdf.NewParser(f).Parse()
	if err != nil {
		return Library{}, fmt.Errorf("parse library manifest %s: %w", path, err)
	}
	return fromDocument(doc)
}

func fromDocument(doc map[string]interface{}) (Library, error) {
	root, ok := lookupMap(doc, rootKey)
	if !ok {
		return Library{}, fmt.Errorf("%w: missing %q section", ErrMalformed, rootKey)
	}

	lib := Library{Folders: make(map[string]Folder)}
	for key, value := range root {
		// Older manifests mix plain path strings and metadata like
		// "contentstatsid" into the same section; only numbered blocks are folders.
		if _, err := strconv.ParseUint(key, 10, 64); err != nil {
			continue
		}
		section, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		folder := Folder{
			Path:  lookupString(section, "path"),
			Label: lookupString(section, "label"),
			Apps:  make(map[uint64]uint64),
		}
		apps, _ := lookupMap(section, "apps")
		for rawID, rawSize := range apps {
			id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 64)
			if err != nil {
				lib.Skipped++
				continue
			}
			size, _ := rawSize.(string)
			n, _ := strconv.ParseUint(strings.TrimSpace(size), 10, 64)
			folder.Apps[id] = n
		}
		lib.Folders[key] = folder
	}
	return lib, nil
}

// AppIDs returns every installed app id across all folders, in no particular
// order and possibly with duplicates when an app appears in more than one
// folder.
func (l Library) AppIDs() []uint64 {
	keys := make([]string, 0, len(l.Folders))
	for key := range l.Folders {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var ids []uint64
	for _, key := range keys {
		for id := range l.Folders[key].Apps {
			ids = append(ids, id)
		}
	}
	return ids
}

// lookupMap finds key case-insensitively; KeyValues keys are not case sensitive.
func lookupMap(doc map[string]interface{}, key string) (map[string]interface{}, bool) {
	for k, v := range doc {
		if strings.EqualFold(k, key) {
			m, ok := v.(map[string]interface{})
			return m, ok
		}
	}
	return nil, false
}

func lookupString(doc map[string]interface{}, key string) string {
	for k, v := range doc {
		if strings.EqualFold(k, key) {
			s, _ := v.(string)
			return s
		}
	}
	return ""
}
