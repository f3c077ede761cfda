package catalogcmd

// FeatureGates exposes runtime toggles the handlers honour. Callers supply
// closures reading Config.Features so handlers stay decoupled from configuration.
type FeatureGates struct {
	GitHubEnabled   func() bool
	SnapshotEnabled func() bool
}

func (g FeatureGates) githubEnabled() bool {
	if g.GitHubEnabled == nil {
		return true
	}
	return g.GitHubEnabled()
}

func (g FeatureGates) snapshotEnabled() bool {
	if g.SnapshotEnabled == nil {
		return true
	}
	return g.SnapshotEnabled()
}
