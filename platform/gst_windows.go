// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package platform

import "golang.org/x/sys/windows"

func gstreamerPresent() bool {
	return windows.NewLazyDLL("gstreamer-1.0-0.dll").Load() == nil
}
