// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package d3d11 implements accel.Device with the Direct3D 11 video API.
// On other platforms Open returns accel.ErrUnavailable.
package d3d11
