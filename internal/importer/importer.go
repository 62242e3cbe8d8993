// Package importer loads highways, administrative boundaries and islands
// from an OSM .pbf extract or an Overpass API query into PostGIS, and
// Facebook AI roads from GeoPackage files.
package importer

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"

	"github.com/streetmap-tiles/internal/domain"
	"github.com/streetmap-tiles/internal/domain/repository"
)

const DefaultBatchSize = 1000

// way is a matched way waiting for node coordinates.
type way struct {
	id    int64
	kinds []string
	name  string
	tag   string // highway value
	nodes []osm.NodeID
}

// Classify returns the import kinds a way belongs to, restricted to enabled.
func Classify(tags osm.Tags, enabled []string) []string {
	var kinds []string
	if tags.Find("highway") != "" && slices.Contains(enabled, domain.ImportHighways) {
		kinds = append(kinds, domain.ImportHighways)
	}
	if tags.Find("boundary") == "administrative" && slices.Contains(enabled, domain.ImportBoundaries) {
		kinds = append(kinds, domain.ImportBoundaries)
	}
	if tags.Find("place") == "island" && slices.Contains(enabled, domain.ImportIslands) {
		kinds = append(kinds, domain.ImportIslands)
	}
	return kinds
}

// BuildLine resolves node ids to a Web Mercator line string. Ways with a
// missing node or fewer than two points are rejected.
func BuildLine(ids []osm.NodeID, coords map[osm.NodeID]orb.Point) (orb.LineString, bool) {
	if len(ids) < 2 {
		return nil, false
	}
	line := make(orb.LineString, 0, len(ids))
	for _, id := range ids {
		p, ok := coords[id]
		if !ok {
			return nil, false
		}
		line = append(line, project.WGS84.ToMercator(p))
	}
	return line, true
}

// ValidKinds checks the requested kinds against the supported ones.
func ValidKinds(kinds []string) error {
	if len(kinds) == 0 {
		return fmt.Errorf("no import kinds given")
	}
	for _, k := range kinds {
		switch k {
		case domain.ImportHighways, domain.ImportBoundaries, domain.ImportIslands:
		default:
			return fmt.Errorf("unknown import kind %q", k)
		}
	}
	return nil
}

type Importer struct {
	repo      repository.OSMRepository
	logger    *zap.Logger
	batchSize int
}

func New(repo repository.OSMRepository, logger *zap.Logger, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{repo: repo, logger: logger, batchSize: batchSize}
}

// objectScanner is the part of the osmpbf and osmxml scanners the import uses.
type objectScanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// openFunc starts a scan over r. ways selects the pass: ways only, or
// nodes only.
type openFunc func(ctx context.Context, r io.Reader, ways bool) objectScanner

func openPBF(ctx context.Context, r io.Reader, ways bool) objectScanner {
	scanner := osmpbf.New(ctx, r, runtime.GOMAXPROCS(0))
	scanner.SkipNodes = ways
	scanner.SkipWays = !ways
	scanner.SkipRelations = true
	return scanner
}

func openXML(ctx context.Context, r io.Reader, _ bool) objectScanner {
	return osmxml.New(ctx, r)
}

// Run imports a .pbf extract.
func (im *Importer) Run(ctx context.Context, r io.ReadSeeker, kinds []string) (*domain.ImportStats, error) {
	return im.run(ctx, r, kinds, openPBF)
}

// run scans the data twice: ways first to collect matches and the node
// ids they reference, then nodes to resolve coordinates.
func (im *Importer) run(ctx context.Context, r io.ReadSeeker, kinds []string, open openFunc) (*domain.ImportStats, error) {
	if err := ValidKinds(kinds); err != nil {
		return nil, err
	}
	start := time.Now()

	ways, needed, err := im.scanWays(ctx, open(ctx, r, true), kinds)
	if err != nil {
		return nil, fmt.Errorf("scan ways: %w", err)
	}
	im.logger.Info("Ways matched", zap.Int("ways", len(ways)), zap.Int("nodes", len(needed)))

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind extract: %w", err)
	}

	coords, err := im.scanNodes(open(ctx, r, false), needed)
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}

	stats, err := im.store(ctx, ways, coords)
	if err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

func (im *Importer) scanWays(ctx context.Context, scanner objectScanner, kinds []string) ([]way, map[osm.NodeID]struct{}, error) {
	defer scanner.Close()

	var ways []way
	needed := make(map[osm.NodeID]struct{})

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		matched := Classify(w.Tags, kinds)
		if len(matched) == 0 {
			continue
		}
		ids := w.Nodes.NodeIDs()
		for _, id := range ids {
			needed[id] = struct{}{}
		}
		ways = append(ways, way{
			id:    int64(w.ID),
			kinds: matched,
			name:  w.Tags.Find("name"),
			tag:   w.Tags.Find("highway"),
			nodes: ids,
		})
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return ways, needed, nil
}

func (im *Importer) scanNodes(scanner objectScanner, needed map[osm.NodeID]struct{}) (map[osm.NodeID]orb.Point, error) {
	defer scanner.Close()

	coords := make(map[osm.NodeID]orb.Point, len(needed))
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, want := needed[n.ID]; want {
			coords[n.ID] = n.Point()
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, err
	}
	return coords, nil
}

func (im *Importer) store(ctx context.Context, ways []way, coords map[osm.NodeID]orb.Point) (*domain.ImportStats, error) {
	stats := &domain.ImportStats{}
	b := &batches{}

	for _, w := range ways {
		line, ok := BuildLine(w.nodes, coords)
		if !ok {
			stats.Skipped++
			im.logger.Debug("Way skipped", zap.Int64("id", w.id))
			continue
		}
		b.add(w, line)

		if b.size() >= im.batchSize {
			if err := im.flush(ctx, b, stats); err != nil {
				return nil, err
			}
		}
	}
	if err := im.flush(ctx, b, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (im *Importer) flush(ctx context.Context, b *batches, stats *domain.ImportStats) error {
	if len(b.highways) > 0 {
		n, err := im.repo.UpsertHighways(ctx, b.highways)
		if err != nil {
			return fmt.Errorf("upsert highways: %w", err)
		}
		stats.Highways += n
	}
	if len(b.boundaries) > 0 {
		n, err := im.repo.UpsertAdminBoundaries(ctx, b.boundaries)
		if err != nil {
			return fmt.Errorf("upsert boundaries: %w", err)
		}
		stats.Boundaries += n
	}
	if len(b.islands) > 0 {
		lines, areas, err := im.repo.UpsertIslands(ctx, b.islands)
		if err != nil {
			return fmt.Errorf("upsert islands: %w", err)
		}
		stats.Islands += lines
		stats.IslandAreas += areas
	}

	im.logger.Debug("Batch stored",
		zap.Int("highways", stats.Highways),
		zap.Int("boundaries", stats.Boundaries),
		zap.Int("islands", stats.Islands))
	b.reset()
	return nil
}

type batches struct {
	highways   []domain.Highway
	boundaries []domain.AdminBoundary
	islands    []domain.Island
}

func (b *batches) add(w way, line orb.LineString) {
	for _, k := range w.kinds {
		switch k {
		case domain.ImportHighways:
			b.highways = append(b.highways, domain.Highway{ID: w.id, Name: w.name, Highway: w.tag, Geometry: line})
		case domain.ImportBoundaries:
			b.boundaries = append(b.boundaries, domain.AdminBoundary{ID: w.id, Name: w.name, Geometry: line})
		case domain.ImportIslands:
			b.islands = append(b.islands, domain.Island{ID: w.id, Name: w.name, Geometry: line})
		}
	}
}

func (b *batches) size() int {
	return len(b.highways) + len(b.boundaries) + len(b.islands)
}

func (b *batches) reset() {
	b.highways = b.highways[:0]
	b.boundaries = b.boundaries[:0]
	b.islands = b.islands[:0]
}
