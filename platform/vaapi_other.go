// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package platform

import "github.com/pkg/errors"

func probeVAAPI(renderNode string) (VAAPIProfiles, error) {
	return VAAPIProfiles{}, errors.New("va-api is only probed on linux")
}
