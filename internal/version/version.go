/*
Package version provides build information for food-search.

Values are set via ldflags during build:

	go build -ldflags "-X github.com/khanglvm/food-search/internal/version.Version=v0.3.0 \
	  -X github.com/khanglvm/food-search/internal/version.Commit=$(git rev-parse --short HEAD) \
	  -X github.com/khanglvm/food-search/internal/version.Date=$(date -u +%Y-%m-%d)"

If not set, the build reports itself as "dev".
*/
package version

var (
	// Version is the release tag (e.g., v0.3.0)
	Version = "dev"
	// Commit is the git commit hash (short form)
	Commit = "none"
	// Date is the build date in UTC (YYYY-MM-DD)
	Date = "unknown"
)

// String formats the build information for display.
func String() string {
	return Format(Version, Commit, Date)
}

// Format renders version components as one line. Development builds omit
// the commit and date.
func Format(version, commit, date string) string {
	if version == "dev" {
		return version + " (development build)"
	}
	return version + " (commit: " + commit + ", built: " + date + ")"
}
