package store

// Installed-from source tags stored in installed_from.
const (
	InstalledFromUnset      = ""
	InstalledFromGooglePlay = "google_play"
	InstalledFromFDroid     = "fdroid"
	InstalledFromOther      = "other"
)

// App is one row of main_table: community scores for a package merged with
// what is known about the package on the local device.
type App struct {
	Name           string
	PackageName    string
	IconURL        string
	DgScore        float64 // de-Googled, 0-10, one decimal
	TotalDgRatings int
	MgScore        float64 // microG, 0-10, one decimal
	TotalMgRatings int
	Ratings        []Rating
	Notes          *string

	// IsInPlexusData and IsInstalled track provenance independently. A row is
	// only deleted when both are false.
	IsInPlexusData bool
	IsInstalled    bool

	InstalledVersion string
	InstalledBuild   int64
	InstalledFrom    string
	IsFav            bool
}

// Rating is a single community rating submitted for an app.
type Rating struct {
	Version        string `json:"version"`
	BuildNumber    int64  `json:"build_number"`
	AndroidVersion string `json:"android_version,omitempty"`
	ROMName        string `json:"rom_name,omitempty"`
	ROMBuild       string `json:"rom_build,omitempty"`
	InstalledFrom  string `json:"installed_from,omitempty"`
	GoogleLib      string `json:"google_lib"` // "native" or "micro_g"
	Score          int    `json:"score"`      // 1-4
	Notes          string `json:"notes,omitempty"`
}

// ScoreRange is an inclusive score interval. AnyScore disables filtering on
// the dimension it is applied to.
type ScoreRange struct {
	From float64
	To   float64
}

// AnyScore is the sentinel range that matches every score.
var AnyScore = ScoreRange{From: -1, To: -1}

// IsAny reports whether r is the AnyScore sentinel.
func (r ScoreRange) IsAny() bool {
	return r.From == -1 && r.To == -1
}

// Filter parameterizes the sorted list queries.
type Filter struct {
	InstalledFrom string // exact match, "" matches any source
	Dg            ScoreRange
	Mg            ScoreRange
	Ascending     bool // sort by name
}

// DefaultFilter matches everything, sorted A-Z.
func DefaultFilter() Filter {
	return Filter{Dg: AnyScore, Mg: AnyScore, Ascending: true}
}

// Counts summarizes the table for status output.
type Counts struct {
	Total       int
	InPlexus    int
	Installed   int
	Favorites   int
	InstallOnly int // installed but absent from the remote dataset
}
