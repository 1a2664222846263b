package tlpkg

import (
	"regexp"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
)

var checksumMismatch = regexp.MustCompile(
	`TeXLive::TLUtils::check_file_and_remove: checksums differ for .*[\\/]([^\\/]+)\.tar\.xz:`,
)

// CheckOutput inspects the output of install-tl or tlmgr for packages that
// were removed because their checksum did not match.
func CheckOutput(output string) error {
	m := checksumMismatch.FindStringSubmatch(output)
	if m == nil {
		return nil
	}
	return fault.New(fault.KindExecution, "The checksum of package %s did not match.", m[1]).
		WithSuggestion("The mirror may be out of sync; re-run the job to pick another one")
}
