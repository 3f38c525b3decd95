// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !windows

package d3d11

import "github.com/cnotch/hwdec/accel"

// Device is unavailable on this platform.
type Device struct{ accel.Device }

// Available reports false.
func Available() bool { return false }

// Open returns accel.ErrUnavailable.
func Open() (*Device, error) {
	return nil, accel.ErrUnavailable
}
