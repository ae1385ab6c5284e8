package pyenv

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// versionPattern matches a dotted major.minor.patch triple anywhere in text.
var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Version is the major.minor.patch triple of a CPython release, as reported
// by the interpreter itself. It is immutable and only ever used to format
// vendor paths and file names.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// ParseVersion extracts the first major.minor.patch triple from s, ignoring
// any surrounding text ("Python 3.11.4\n" parses as 3.11.4). It returns
// ErrUnparseableVersion when no triple is present.
func ParseVersion(s string) (Version, error) {
	raw := versionPattern.FindString(s)
	if raw == "" {
		return Version{}, fmt.Errorf("%w: no major.minor.patch triple in %q", ErrUnparseableVersion, s)
	}

	sv, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %w", ErrUnparseableVersion, raw, err)
	}

	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch()}, nil
}

// String returns the dotted form, e.g. "3.11.4".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ShortTag returns the undotted major+minor form used in vendor file names,
// e.g. "311" for 3.11.4.
func (v Version) ShortTag() string {
	return fmt.Sprintf("%d%d", v.Major, v.Minor)
}

// PthFileName returns the name of the path configuration file inside an
// embeddable distribution, e.g. "python311._pth".
func (v Version) PthFileName() string {
	return fmt.Sprintf("python%s._pth", v.ShortTag())
}

// HostInstallDirName returns the directory name of a standard Windows Python
// installation for this version, e.g. "Python311".
func (v Version) HostInstallDirName() string {
	return fmt.Sprintf("Python%s", v.ShortTag())
}
