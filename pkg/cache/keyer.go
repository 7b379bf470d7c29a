package cache

import "strings"

// Key types, used as the first key segment and as the metrics label.
const (
	KeyTypeRank   = "rank"
	KeyTypeRender = "render"
)

// RankKeyOpts lists every ranking option that changes the result.
type RankKeyOpts struct {
	Ranker        string `json:"ranker"`
	Balance       string `json:"balance"`
	Adjust        string `json:"adjust"`
	MaxIterations int    `json:"max_iterations"`
	SearchSize    int    `json:"search_size"`
	BreakCycles   bool   `json:"break_cycles"`
	Subdivide     bool   `json:"subdivide"`
	Components    bool   `json:"components"`
}

// RenderKeyOpts lists the rendering options on top of the ranking ones.
type RenderKeyOpts struct {
	Rank      RankKeyOpts `json:"rank"`
	Format    string      `json:"format"`
	Detailed  bool        `json:"detailed"`
	EdgeAttrs bool        `json:"edge_attrs"`
}

// Keyer derives cache keys from a graph hash and request options.
type Keyer interface {
	RankKey(graphHash string, opts RankKeyOpts) string
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// DefaultKeyer hashes the graph hash together with the options.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the unscoped keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RankKey returns "rank:<sha256>".
func (DefaultKeyer) RankKey(graphHash string, opts RankKeyOpts) string {
	return entryKey(KeyTypeRank, graphHash, opts)
}

// RenderKey returns "render:<sha256>".
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return entryKey(KeyTypeRender, graphHash, opts)
}

// keyType extracts the key type segment, skipping any scope prefix.
func keyType(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[len(parts)-2]
}
