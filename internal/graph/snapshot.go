package graph

// PublicID maps a canonical asset id to its short public id.
type PublicID struct {
	AssetID  string `json:"assetId"`
	PublicID string `json:"publicId"`
}

// Snapshot is everything loaded from a build cache: both graphs plus the
// side tables the bundle graph keeps next to its nodes.
type Snapshot struct {
	AssetGraph  *ContentGraph
	BundleGraph *ContentGraph

	// PublicIDs is ordered; lookups scan it front to back.
	PublicIDs  []PublicID
	BundleInfo map[string]BundleInfo
}
