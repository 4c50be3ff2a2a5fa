package version

import "runtime/debug"

// Version is empty unless stamped by the linker, e.g.
//
//	go build -ldflags "-X github.com/vsariola/bayan/version.Version=v1.0.0" ./cmd/...
var Version string

// Hash is the short VCS revision the binary was built from, with a -dirty
// suffix for a modified tree, or empty when the build carries no VCS info.
var Hash = vcsHash()

// VersionOrHash is what the -v flag of the commands prints.
var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	return Hash
}()

func vcsHash() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
