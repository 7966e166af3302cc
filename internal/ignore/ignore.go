// Package ignore filters scan and listing output the way
// original_source/core/ignore.rs's IgnoreRules does: a fixed macOS noise
// preset merged with user-supplied glob patterns, matched against both the
// bare filename and the full relative path.
package ignore

import (
	"github.com/gobwas/glob"
)

// MacOSNoise mirrors the original's MACOS_NOISE constant: filesystem
// artifacts that clutter every comparison on a Mac and never reflect user
// intent.
var MacOSNoise = []string{
	".DS_Store",
	"._*",
	".Spotlight-V100",
	".Trashes",
	".fseventsd",
	".TemporaryItems",
	".VolumeIcon.icns",
	"__MACOSX",
	"Thumbs.db",
}

type Rules struct {
	globs []glob.Glob
}

// New compiles the macOS noise preset plus userPatterns into matchable
// globs. A pattern that fails to compile is skipped rather than aborting
// construction, since a typo in a user pattern should not disable ignore
// filtering altogether.
func New(userPatterns []string) *Rules {
	patterns := make([]string, 0, len(MacOSNoise)+len(userPatterns))
	patterns = append(patterns, MacOSNoise...)
	patterns = append(patterns, userPatterns...)

	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		globs = append(globs, g)
	}

	return &Rules{globs: globs}
}

// IsIgnored reports whether relPath (slash-separated, relative to a scan
// root) should be excluded, checking both its basename and the full path
// against every compiled pattern.
func (r *Rules) IsIgnored(relPath string) bool {
	filename := relPath
	for i := len(relPath) - 1; i >= 0; i-- {
		if relPath[i] == '/' {
			filename = relPath[i+1:]
			break
		}
	}

	for _, g := range r.globs {
		if g.Match(filename) || g.Match(relPath) {
			return true
		}
	}
	return false
}
