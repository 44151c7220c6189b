package version

// Set at build time with -ldflags "-X loadgen/version.Version=... -X loadgen/version.Commit=...".
var (
	Version = "dev"
	Commit  = ""
)

// String returns a composed string of version and short commit.
func String() string {
	if len(Commit) >= 8 {
		return Version + "-" + Commit[0:8]
	}
	if Commit != "" {
		return Version + "-" + Commit
	}
	return Version
}
