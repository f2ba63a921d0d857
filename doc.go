// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernelbench measures the steady-state latency of computation
// units on an execution device, so that a baseline kernel and an optimized
// variant can be compared.
//
// A Device either queues work for asynchronous, in-order execution
// (StreamDevice) or runs it inline (HostDevice). Both record timestamps
// that are ordered with the work, which lets the Harness time the same way
// on either:
//
//	dev, err := kernelbench.OpenDevice(kernelbench.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	h, _ := kernelbench.NewHarness(dev, kernelbench.DefaultConfig())
//	base, err := h.Measure(baseline, input, 100, 10)
//	...
//	opt, err := h.Measure(optimized, input, 100, 10)
//	...
//	c, err := kernelbench.Compare("fused-conv", base, opt)
//	fmt.Printf("%.2fx\n", c.Speedup)
//
// Warm-up invocations are never timed, and a measurement is only produced
// after the device has drained every timed invocation.
package kernelbench
