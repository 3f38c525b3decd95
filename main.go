// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cnotch/hwdec/accel"
	"github.com/cnotch/hwdec/accel/d3d11"
	"github.com/cnotch/hwdec/accel/fake"
	"github.com/cnotch/hwdec/config"
	"github.com/cnotch/hwdec/decoder"
	"github.com/cnotch/hwdec/media"
	"github.com/cnotch/hwdec/platform"
	"github.com/cnotch/hwdec/service"
	"github.com/cnotch/scheduler"
	"github.com/cnotch/xlog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 初始化配置
	config.InitConfig()
	// 初始化全局计划任务
	scheduler.SetPanicHandler(func(job *scheduler.ManagedJob, r interface{}) {
		xlog.Errorf("scheduler task panic. tag: %v, recover: %v", job.Tag, r)
	})

	logger := xlog.L()

	codec, err := decoder.ParseCodec(config.Codec())
	if err != nil {
		logger.Panic(err.Error())
	}
	delivery, err := decoder.ParseDelivery(config.Delivery())
	if err != nil {
		logger.Panic(err.Error())
	}
	prefer, hasPreference, err := media.ParseBackend(config.Backend())
	if err != nil {
		logger.Panic(err.Error())
	}

	src, err := media.OpenFileSource(config.Input(), codec, config.Loop())
	if err != nil {
		logger.Panic(fmt.Sprintf("open input %q: %v", config.Input(), err))
	}
	logger.Infof("input %s: %d access units", config.Input(), src.Len())

	fc := media.FactoryConfig{
		Codec:             codec,
		SurfaceCount:      config.Surfaces(),
		Delivery:          delivery,
		KeyframeThreshold: config.KeyframeThreshold(),
		LowLatency:        config.LowLatency(),
		Prefer:            prefer,
		HasPreference:     hasPreference,
		OpenDevice:        deviceOpener(config.Device()),
	}
	// 后端扩展选项
	opts := config.LoadBackendOptions(&media.NativeOptions{}, &media.GstOptions{})
	opts.(media.BackendOptions).Apply(&fc)

	pc := platform.NewSystemContext()
	dec, err := media.NewFactory(pc, logger).Create(fc)
	if err != nil {
		logger.Panic(err.Error())
	}
	if w, h, hdr := config.Size(); w > 0 && h > 0 {
		if err := dec.Configure(w, h, hdr); err != nil {
			xlog.Warnf("configure %dx%d: %v", w, h, err)
		}
	}

	svc := service.NewService(dec, service.Options{
		Platform:      pc,
		Prefer:        prefer,
		HasPreference: hasPreference,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	svc.HookSignals(cancel)

	var wantKeyframe int32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Listen(gctx, config.StatusListen())
	})
	g.Go(func() error {
		defer cancel()
		return feed(gctx, dec, src, config.FPS(), &wantKeyframe, logger)
	})
	g.Go(func() error {
		for st := range dec.Stats() {
			if st.NeedsKeyframe {
				atomic.StoreInt32(&wantKeyframe, 1)
			}
		}
		return nil
	})

	// 输入结束或收到信号后关闭解码器，Stats 通道随之关闭
	go func() {
		<-gctx.Done()
		dec.Close()
	}()

	if err := g.Wait(); err != nil {
		xlog.Errorf("hwdec exited: %v", err)
	}
	svc.Close()
	logger.Infof("%d frames decoded by %s", dec.FramesDecoded(), dec.Backend())
}

// deviceOpener 选择原生后端的加速设备
func deviceOpener(name string) func() (accel.Device, error) {
	switch strings.ToLower(name) {
	case "null":
		return func() (accel.Device, error) { return fake.NewDevice(), nil }
	case "d3d11":
		return func() (accel.Device, error) {
			dev, err := d3d11.Open()
			if err != nil {
				return nil, err
			}
			return dev, nil
		}
	}
	return nil
}

// feed 按 fps 送入访问单元；解码器请求关键帧时跳到下一个随机访问点
func feed(ctx context.Context, dec media.VideoDecoder, src *media.FileSource, fps float64, wantKeyframe *int32, logger *xlog.Logger) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if atomic.CompareAndSwapInt32(wantKeyframe, 1, 0) {
			if src.SeekKeyframe() {
				logger.Info("keyframe requested, skipping to the next random access point")
			}
		}

		au, err := src.Next()
		if err == io.EOF {
			logger.Info("end of input")
			return nil
		}
		if err != nil {
			return err
		}
		if err = dec.DecodeAsync(au, time.Now()); err != nil {
			if err == media.ErrClosed {
				return nil
			}
			return errors.Wrap(err, "queue access unit")
		}
	}
}
