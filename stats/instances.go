// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"sync/atomic"
)

// 全局变量
var (
	Decoders = NewInstances() // 硬件解码器实例统计
)

// InstancesSample 实例计数采样
type InstancesSample struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// Instances 实例统计
type Instances interface {
	Add() int64
	Release() int64
	GetSample() InstancesSample
}

func (s *InstancesSample) clone() InstancesSample {
	return InstancesSample{
		Total:  atomic.LoadInt64(&s.Total),
		Active: atomic.LoadInt64(&s.Active),
	}
}

type instances struct {
	sample InstancesSample
}

// NewInstances 新建实例计数
func NewInstances() Instances {
	return &instances{}
}

func (c *instances) Add() int64 {
	atomic.AddInt64(&c.sample.Total, 1)
	return atomic.AddInt64(&c.sample.Active, 1)
}

func (c *instances) Release() int64 {
	return atomic.AddInt64(&c.sample.Active, -1)
}

func (c *instances) GetSample() InstancesSample {
	return c.sample.clone()
}
