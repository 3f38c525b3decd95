// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !gstreamer

package media

import (
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
)

// GstAvailable reports whether the binary was built with GStreamer.
func GstAvailable() bool { return false }

// GstDecoder is not available without the gstreamer build tag.
type GstDecoder struct{ VideoDecoder }

// NewGstDecoder fails; build with -tags gstreamer.
func NewGstDecoder(cfg GstConfig, logger *xlog.Logger) (*GstDecoder, error) {
	return nil, errors.Errorf("%s backend: built without gstreamer support", cfg.backend())
}
