// Package version reports what build of speakerlined is running.
//
// Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "-X github.com/skillsenselab/speakerline/version.Version=1.2.0"
//
// Unstamped builds fall back to the VCS metadata Go embeds in the
// binary.
package version
