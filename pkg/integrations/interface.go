package integrations

// Packager writes a laid-out book to outputPath. coverPath points at the
// cover image already on disk.
type Packager interface {
	Package(layout *PackageLayout, coverPath, outputPath string) error
}
