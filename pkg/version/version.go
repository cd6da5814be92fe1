package version

// Auditor release version injected by the linker.
var version = "development"

func Version() string {
	if version == "" {
		panic("binary compiled with empty version")
	}
	return version
}
