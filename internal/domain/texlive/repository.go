package texlive

// Repository locations.
const (
	// CTANMirror redirects to a nearby CTAN mirror.
	CTANMirror = "https://mirror.ctan.org/systems/texlive/tlnet/"
	// HistoricArchive hosts frozen repositories of past releases.
	HistoricArchive = "https://ftp.math.utah.edu/pub/tex/historic/systems/texlive/"
	// ContribRepository is the TLContrib repository.
	ContribRepository = "https://mirror.ctan.org/systems/texlive/tlcontrib/"
	// ContribTag is the tag TLContrib is registered under.
	ContribTag = "tlcontrib"
)

// RepositoryURL returns the package repository for v. The latest release is
// served by CTAN; older releases come from the historic archive, whose
// layout changed in 2010.
func RepositoryURL(v Version) string {
	if v.IsLatest() {
		return CTANMirror
	}
	dir := "tlnet-final/"
	if v.Before(YearConfCommand) {
		dir = "tlnet/"
	}
	return HistoricArchive + v.String() + "/" + dir
}
