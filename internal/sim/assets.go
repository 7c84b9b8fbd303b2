package sim

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/editorharness/internal/core/models"
)

// AssetCatalogFile lists the product assets known at startup, one path per
// entry, at the root of the levels FS.
const AssetCatalogFile = "assetcatalog.yaml"

// AssetCatalog maps normalized product paths to AssetIDs.
type AssetCatalog struct {
	byPath map[string]models.AssetID
	byID   map[models.AssetID]string
}

func newAssetCatalog() *AssetCatalog {
	return &AssetCatalog{
		byPath: make(map[string]models.AssetID),
		byID:   make(map[models.AssetID]string),
	}
}

func loadAssetCatalog(fsys fs.FS) (*AssetCatalog, error) {
	c := newAssetCatalog()
	if fsys == nil {
		return c, nil
	}
	raw, err := fs.ReadFile(fsys, AssetCatalogFile)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sim: read asset catalog: %w", err)
	}
	var paths []string
	if err := yaml.Unmarshal(raw, &paths); err != nil {
		return nil, fmt.Errorf("sim: parse asset catalog: %w", err)
	}
	for _, p := range paths {
		c.Register(p)
	}
	return c, nil
}

// Register catalogs a product path and returns its id. Registering the same
// path twice, in any case or slash style, yields the same id.
func (c *AssetCatalog) Register(p string) models.AssetID {
	norm := models.NormalizeAssetPath(p)
	if id, ok := c.byPath[norm]; ok {
		return id
	}
	id := models.AssetIDFromPath(norm, uint32(xxhash.Sum64String(norm)))
	c.byPath[norm] = id
	c.byID[id] = norm
	return id
}

// Lookup returns the id for a path, or the invalid id.
func (c *AssetCatalog) Lookup(p string) (models.AssetID, bool) {
	id, ok := c.byPath[models.NormalizeAssetPath(p)]
	return id, ok
}

// Path returns the normalized path for an id.
func (c *AssetCatalog) Path(id models.AssetID) (string, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Paths lists every catalogued path in order.
func (c *AssetCatalog) Paths() []string {
	out := make([]string, 0, len(c.byPath))
	for p := range c.byPath {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
