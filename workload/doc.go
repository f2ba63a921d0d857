// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload provides the computation units compared by kernelbench:
// convolution with a bias and ReLU epilogue (unfused against fused),
// softmax (the textbook formula against a fused, numerically stable pass,
// and a half-precision variant), and direct convolution against a
// Winograd-style tiled convolution.
//
// The Winograd unit only reorganizes the direct arithmetic into 2x2 output
// tiles; it does not apply the Winograd transforms. Its results match the
// direct convolution up to float32 rounding.
package workload
