package fitctl

import goversion "github.com/caarlos0/go-version"

// Filled in at link time, e.g.
// -ldflags "-X github.com/dmitrijs2005/fitkeeper/internal/fitctl.Version=v1.0.0".
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

// BuildInfo describes the running binary. Values not injected at link time
// fall back to the module build info.
func BuildInfo() goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("fitctl", "fitkeeper admin tool", "https://github.com/dmitrijs2005/fitkeeper"),
		func(i *goversion.Info) {
			if Version != "" {
				i.GitVersion = Version
			}
			if Commit != "" {
				i.GitCommit = Commit
			}
			if BuildDate != "" {
				i.BuildDate = BuildDate
			}
		},
	)
}
