// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package service

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cnotch/hwdec/media"
	"github.com/cnotch/hwdec/platform"
	"github.com/cnotch/hwdec/stats"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"github.com/emitter-io/address"
)

const (
	defaultStatusPort = 8086
	summaryPeriod     = 10 * time.Second
)

// Decoder is the part of a media.VideoDecoder the service reports on.
type Decoder interface {
	Backend() media.Backend
	FramesDecoded() uint64
}

// Options 服务选项
type Options struct {
	Platform      *platform.Context
	Prefer        media.Backend
	HasPreference bool
}

// Service 解码进程的状态服务(状态 API 和定时摘要)
type Service struct {
	opts    Options
	decoder Decoder
	logger  *xlog.Logger
	http    *http.Server
}

// NewService 创建服务
func NewService(dec Decoder, opts Options, l *xlog.Logger) *Service {
	if l == nil {
		l = xlog.L()
	}
	s := &Service{
		opts:    opts,
		decoder: dec,
		logger:  l.With(xlog.Fields(xlog.F("module", "service"))),
		http:    new(http.Server),
	}

	mux := http.NewServeMux()
	s.initApis(mux)
	s.http.Handler = mux

	// 定时输出解码摘要
	scheduler.PeriodFunc(summaryPeriod, summaryPeriod, s.logSummary,
		"The task of logging the decode summary(10seconds)")

	s.logger.Info("service configured")
	return s
}

// Handler returns the status API handler.
func (s *Service) Handler() http.Handler { return s.http.Handler }

// Listen serves the status API on addr until ctx is done. An empty addr
// only waits for ctx.
func (s *Service) Listen(ctx context.Context, addr string) error {
	if addr == "" {
		<-ctx.Done()
		return nil
	}

	tcpAddr, err := address.Parse(addr, defaultStatusPort)
	if err != nil {
		return err
	}
	l, err := net.Listen("tcp", tcpAddr.String())
	if err != nil {
		return err
	}
	s.logAddrs(tcpAddr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	if err = s.http.Serve(l); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// logAddrs 输出可访问的地址
func (s *Service) logAddrs(addr *net.TCPAddr) {
	if addr.IP != nil && !addr.IP.IsUnspecified() {
		s.logger.Infof("status api listening, addr = %s.", addr.String())
		return
	}

	privs, err := address.GetPrivate()
	if err != nil || len(privs) == 0 {
		s.logger.Infof("status api listening, addr = %s.", addr.String())
		return
	}
	for _, priv := range privs {
		s.logger.Infof("status api listening, addr = %s.",
			(&net.TCPAddr{IP: priv.IP, Port: addr.Port}).String())
	}
}

func (s *Service) logSummary() {
	sum := stats.MeasureSummary()
	s.logger.Infof("decode summary: backend=%s in=%d out=%d failures=%d keyframes=%d avg=%s decoders=%d/%d cpu=%.1f%% mem=%dKB",
		s.decoder.Backend(), sum.Decode.InFrames, sum.Decode.OutFrames, sum.Decode.Failures,
		sum.Decode.KeyframeRequests, sum.Decode.AvgDecodeTime(), sum.Decoders.Active, sum.Decoders.Total,
		sum.Proc.CPU, sum.Proc.Priv)
}

// Close 停止计划任务
func (s *Service) Close() {
	jobs := scheduler.Jobs()
	for _, job := range jobs {
		job.Cancel()
	}
	s.logSummary()
}

// HookSignals calls cancel on SIGINT or SIGTERM.
func (s *Service) HookSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		s.logger.Warnf("received signal %s, exiting...", sig.String())
		cancel()
	}()
}
