package core

// RepoConfig holds optional per-repository review settings read from a
// .pr-warden.yml file at the root of the reviewed repository.
type RepoConfig struct {
	// PreferredBase is tried as the first diff base before the defaults.
	PreferredBase string `yaml:"preferred_base"`

	// ExcludePaths lists path prefixes whose diff sections are dropped
	// from the review context.
	ExcludePaths []string `yaml:"exclude_paths"`
}

// DefaultRepoConfig returns the settings used when a repository carries no
// config file of its own.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{}
}
