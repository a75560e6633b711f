package memory

// Buckets lists the snapshot sections in the order durable backends write them.
var Buckets = []string{"crops", "cultures", "plots", "positions", "garden", "versions"}

// BucketTargets maps bucket names to decode destinations inside snapshot.
func BucketTargets(snapshot *Snapshot) map[string]any {
	return map[string]any{
		"crops":     &snapshot.Crops,
		"cultures":  &snapshot.Cultures,
		"plots":     &snapshot.Plots,
		"positions": &snapshot.Positions,
		"garden":    &snapshot.Garden,
		"versions":  &snapshot.Versions,
	}
}

// BucketSources maps bucket names to the values to encode from snapshot.
func BucketSources(snapshot Snapshot) map[string]any {
	return map[string]any{
		"crops":     snapshot.Crops,
		"cultures":  snapshot.Cultures,
		"plots":     snapshot.Plots,
		"positions": snapshot.Positions,
		"garden":    snapshot.Garden,
		"versions":  snapshot.Versions,
	}
}
