// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cnotch/apirouter"
	"github.com/cnotch/hwdec/config"
	"github.com/cnotch/hwdec/media"
	"github.com/cnotch/hwdec/platform"
	"github.com/cnotch/hwdec/stats"
)

var (
	buffers = sync.Pool{
		New: func() interface{} {
			return bytes.NewBuffer(make([]byte, 0, 1024*2))
		},
	}
)

var crossdomainxml = []byte(
	`<?xml version="1.0" ?><cross-domain-policy>
			<allow-access-from domain="*" />
			<allow-http-request-headers-from domain="*" headers="*"/>
		</cross-domain-policy>`)

func (s *Service) initApis(mux *http.ServeMux) {
	api := apirouter.NewForGRPC(
		// 系统信息类API
		apirouter.GET("/api/v1/server", s.onGetServerInfo),
		apirouter.GET("/api/v1/runtime", s.onGetRuntime),

		// 解码状态API
		apirouter.GET("/api/v1/decoder", s.onGetDecoder),
		apirouter.GET("/api/v1/backends", s.onListBackends),
	)

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		if path.Base(r.URL.Path) == "crossdomain.xml" {
			w.Header().Set("Content-Type", "application/xml")
			w.Write(crossdomainxml)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", "*")
		api.ServeHTTP(w, r)
	})
}

func (s *Service) onGetServerInfo(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type server struct {
		Vendor   string `json:"vendor"`
		Name     string `json:"name"`
		Version  string `json:"version"`
		OS       string `json:"os"`
		Arch     string `json:"arch"`
		StartOn  string `json:"start_on"`
		Duration string `json:"duration"`
	}
	srv := server{
		Vendor:   config.Vendor,
		Name:     config.Name,
		Version:  config.Version,
		OS:       strings.Title(runtime.GOOS),
		Arch:     strings.ToUpper(runtime.GOARCH),
		StartOn:  stats.StartingTime.Format(time.RFC3339Nano),
		Duration: time.Now().Sub(stats.StartingTime).String(),
	}

	if err := jsonTo(w, &srv); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onGetRuntime(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	const extraKey = "extra"

	type runtime struct {
		On       string                `json:"on"`
		Proc     stats.Proc            `json:"proc"`
		Decode   stats.DecodeSample    `json:"decode"`
		Decoders stats.InstancesSample `json:"decoders"`
		Extra    *stats.Runtime        `json:"extra,omitempty"`
	}

	rt := runtime{
		On:       time.Now().Format(time.RFC3339Nano),
		Proc:     stats.MeasureRuntime(),
		Decode:   stats.Total.GetSample(),
		Decoders: stats.Decoders.GetSample(),
	}

	params := r.URL.Query()
	if strings.TrimSpace(params.Get(extraKey)) == "1" {
		rt.Extra = stats.MeasureFullRuntime()
	}

	if err := jsonTo(w, &rt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onGetDecoder(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type decoder struct {
		Backend       string             `json:"backend"`
		FramesDecoded uint64             `json:"frames_decoded"`
		AvgDecodeTime string             `json:"avg_decode_time"`
		Stats         stats.DecodeSample `json:"stats"`
	}

	sample := stats.Total.GetSample()
	d := decoder{
		Backend:       s.decoder.Backend().String(),
		FramesDecoded: s.decoder.FramesDecoded(),
		AvgDecodeTime: sample.AvgDecodeTime().String(),
		Stats:         sample,
	}

	if err := jsonTo(w, &d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Service) onListBackends(w http.ResponseWriter, r *http.Request, pathParams apirouter.Params) {
	type backends struct {
		Platform   platform.Capabilities `json:"platform"`
		Candidates []string              `json:"candidates"`
		Active     string                `json:"active"`
	}

	if s.opts.Platform == nil {
		http.Error(w, "platform probes unavailable", http.StatusServiceUnavailable)
		return
	}

	candidates := media.Candidates(s.opts.Platform, s.opts.Prefer, s.opts.HasPreference)
	b := backends{
		Platform:   s.opts.Platform.Snapshot(),
		Candidates: make([]string, 0, len(candidates)),
		Active:     s.decoder.Backend().String(),
	}
	for _, c := range candidates {
		b.Candidates = append(b.Candidates, c.String())
	}

	if err := jsonTo(w, &b); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func jsonTo(w io.Writer, o interface{}) error {
	formatted := buffers.Get().(*bytes.Buffer)
	formatted.Reset()
	defer buffers.Put(formatted)

	body, err := json.Marshal(o)
	if err != nil {
		return err
	}

	if err := json.Indent(formatted, body, "", "\t"); err != nil {
		return err
	}

	if _, err := w.Write(formatted.Bytes()); err != nil {
		return err
	}
	return nil
}
