// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux || darwin || freebsd

package platform

import (
	"runtime"

	"github.com/ebitengine/purego"
)

func gstreamerLibPaths() []string {
	if runtime.GOOS == "darwin" {
		return []string{
			"libgstreamer-1.0.0.dylib",
			"/Library/Frameworks/GStreamer.framework/Libraries/libgstreamer-1.0.0.dylib",
			"/opt/homebrew/lib/libgstreamer-1.0.0.dylib",
		}
	}
	return []string{"libgstreamer-1.0.so.0", "libgstreamer-1.0.so"}
}

func gstreamerPresent() bool {
	for _, path := range gstreamerLibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
		if err == nil {
			purego.Dlclose(handle)
			return true
		}
	}
	return false
}
