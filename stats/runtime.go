// Copyright (c) 2019,CAOHONGJU All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stats

import (
	"runtime"
	"time"

	"github.com/kelindar/process"
)

// 创建时间
var (
	StartingTime = time.Now()
)

// Proc 进程资源占用
type Proc struct {
	CPU    float64 `json:"cpu"`    // cpu使用情况
	Priv   int32   `json:"priv"`   // 私有内存 KB
	Virt   int32   `json:"virt"`   // 虚拟内存 KB
	Uptime int32   `json:"uptime"` // 运行时间 S
}

// Runtime Go 运行时内存和调度信息，单位 KB
type Runtime struct {
	HeapInuse   int32   `json:"heap_inuse"`
	HeapAlloc   int32   `json:"heap_alloc"`
	HeapObjects int32   `json:"heap_objects"`
	StackInuse  int32   `json:"stack_inuse"`
	Sys         int32   `json:"sys"`
	GCCPU       float64 `json:"gc_cpu"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int32   `json:"goroutines"`
	CPUs        int32   `json:"cpus"`
}

// Summary 解码进程摘要，用于定时日志
type Summary struct {
	Proc     Proc            `json:"proc"`
	Decode   DecodeSample    `json:"decode"`
	Decoders InstancesSample `json:"decoders"`
}

// MeasureRuntime 获取进程资源占用。
func MeasureRuntime() (p Proc) {
	p.Uptime = int32(time.Now().Sub(StartingTime).Seconds())
	defer func() {
		// process 在部分平台上读取 /proc 失败会 panic
		recover()
	}()

	var memoryPriv, memoryVirtual int64
	var cpu float64
	process.ProcUsage(&cpu, &memoryPriv, &memoryVirtual)
	p.CPU = cpu
	p.Priv = toKB(uint64(memoryPriv))
	p.Virt = toKB(uint64(memoryVirtual))
	return p
}

// MeasureFullRuntime 获取 Go 运行时信息。
func MeasureFullRuntime() *Runtime {
	var memory runtime.MemStats
	runtime.ReadMemStats(&memory)

	return &Runtime{
		HeapInuse:   toKB(memory.HeapInuse),
		HeapAlloc:   toKB(memory.HeapAlloc),
		HeapObjects: int32(memory.HeapObjects),
		StackInuse:  toKB(memory.StackInuse),
		Sys:         toKB(memory.Sys),
		GCCPU:       memory.GCCPUFraction,
		NumGC:       memory.NumGC,
		Goroutines:  int32(runtime.NumGoroutine()),
		CPUs:        int32(runtime.NumCPU()),
	}
}

// MeasureSummary 采集进程和全局解码统计
func MeasureSummary() Summary {
	return Summary{
		Proc:     MeasureRuntime(),
		Decode:   Total.GetSample(),
		Decoders: Decoders.GetSample(),
	}
}

// Converts the memory in bytes to KBs, otherwise it would overflow our int32
func toKB(v uint64) int32 {
	return int32(v / 1024)
}
