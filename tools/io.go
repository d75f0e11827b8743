package tools

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/golang/glog"
)

// Returns the folder assets (like geoid undulation grids) are resolved
// against: the GLOBE_TERRAIN_WORKDIR env var when set, the repository
// root under `go test`, the executable directory otherwise.
func GetRootFolder() string {
	assetsFromEnv := os.Getenv("GLOBE_TERRAIN_WORKDIR")
	if assetsFromEnv != "" {
		return assetsFromEnv
	} else if strings.HasSuffix(os.Args[0], ".test") || strings.HasSuffix(os.Args[0], ".test.exe") {
		_, b, _, _ := runtime.Caller(0)
		return filepath.Dir(filepath.Dir(b))
	} else {
		ex, err := os.Executable()
		if err != nil {
			glog.Fatal("cannot retrieve executable directory", err)
		}
		return filepath.Dir(ex)
	}
}
