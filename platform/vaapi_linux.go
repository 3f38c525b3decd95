// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package platform

import (
	"os"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// VAProfile values from va.h
const (
	vaProfileHEVCMain   = 17
	vaProfileHEVCMain10 = 18
	vaStatusSuccess     = 0
)

var (
	libvaPaths    = []string{"libva.so.2", "libva.so"}
	libvaDRMPaths = []string{"libva-drm.so.2", "libva-drm.so"}
)

type libva struct {
	handle    uintptr
	drmHandle uintptr

	vaGetDisplayDRM       func(fd int32) uintptr
	vaInitialize          func(dpy uintptr, major, minor *int32) int32
	vaMaxNumProfiles      func(dpy uintptr) int32
	vaQueryConfigProfiles func(dpy uintptr, profiles *int32, num *int32) int32
	vaTerminate           func(dpy uintptr) int32
}

func dlopenFirst(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func loadLibva() (*libva, error) {
	handle, err := dlopenFirst(libvaPaths)
	if err != nil {
		return nil, errors.Wrap(err, "load libva")
	}
	drm, err := dlopenFirst(libvaDRMPaths)
	if err != nil {
		purego.Dlclose(handle)
		return nil, errors.Wrap(err, "load libva-drm")
	}

	lib := &libva{handle: handle, drmHandle: drm}
	purego.RegisterLibFunc(&lib.vaGetDisplayDRM, drm, "vaGetDisplayDRM")
	purego.RegisterLibFunc(&lib.vaInitialize, handle, "vaInitialize")
	purego.RegisterLibFunc(&lib.vaMaxNumProfiles, handle, "vaMaxNumProfiles")
	purego.RegisterLibFunc(&lib.vaQueryConfigProfiles, handle, "vaQueryConfigProfiles")
	purego.RegisterLibFunc(&lib.vaTerminate, handle, "vaTerminate")
	return lib, nil
}

func (lib *libva) close() {
	purego.Dlclose(lib.drmHandle)
	purego.Dlclose(lib.handle)
}

// probeVAAPI opens renderNode through libva and lists the HEVC decode
// profiles of its driver.
func probeVAAPI(renderNode string) (va VAAPIProfiles, err error) {
	// RegisterLibFunc panics on a missing symbol
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("libva: %v", r)
		}
	}()

	f, err := os.OpenFile(renderNode, os.O_RDWR, 0)
	if err != nil {
		return va, errors.Wrap(err, "open render node")
	}
	defer f.Close()

	lib, err := loadLibva()
	if err != nil {
		return va, err
	}
	defer lib.close()

	dpy := lib.vaGetDisplayDRM(int32(f.Fd()))
	if dpy == 0 {
		return va, errors.New("vaGetDisplayDRM returned no display")
	}
	var major, minor int32
	if st := lib.vaInitialize(dpy, &major, &minor); st != vaStatusSuccess {
		return va, errors.Errorf("vaInitialize failed: status %d", st)
	}
	defer lib.vaTerminate(dpy)

	n := lib.vaMaxNumProfiles(dpy)
	if n <= 0 {
		return va, nil
	}
	profiles := make([]int32, n)
	var num int32
	if st := lib.vaQueryConfigProfiles(dpy, &profiles[0], &num); st != vaStatusSuccess {
		return va, errors.Errorf("vaQueryConfigProfiles failed: status %d", st)
	}
	for _, p := range profiles[:num] {
		switch p {
		case vaProfileHEVCMain:
			va.HEVCMain = true
		case vaProfileHEVCMain10:
			va.HEVCMain10 = true
		}
	}
	return va, nil
}
